package userstore_test

import (
	"testing"

	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/indexes"
	"github.com/samaquete/jangubi/internal/app/system/status"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/samaquete/jangubi/internal/testutil"
	"go.uber.org/zap"
)

func TestCreate_HashesAndNormalizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)

	u, err := store.Create(ctx, models.User{
		FullName:  "Marie Faye",
		Email:     "Marie.Faye@Dakar.SN",
		Role:      models.RoleDioceseAdmin,
		DioceseID: "DAKAR",
	}, "mot-de-passe")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if u.Email != "marie.faye@dakar.sn" {
		t.Errorf("email not normalized: got %q", u.Email)
	}
	if !u.MustChangePassword {
		t.Error("new accounts must be forced through a password change")
	}
	if u.Status != status.Active {
		t.Errorf("status: got %q, want %q", u.Status, status.Active)
	}

	if !userstore.VerifyPassword(u, "mot-de-passe") {
		t.Error("correct password rejected")
	}
	if userstore.VerifyPassword(u, "autre-mot-de-passe") {
		t.Error("wrong password accepted")
	}
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)

	_, err := store.Create(ctx, models.User{
		FullName: "Marie Faye",
		Email:    "marie.faye@dakar.sn",
		Role:     "bishop",
	}, "mot-de-passe")
	if err != userstore.ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes failed: %v", err)
	}
	store := userstore.New(db)

	base := models.User{
		FullName:  "Marie Faye",
		Email:     "marie.faye@dakar.sn",
		Role:      models.RoleDioceseAdmin,
		DioceseID: "DAKAR",
	}
	if _, err := store.Create(ctx, base, "mot-de-passe"); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	dup := base
	dup.Email = "MARIE.FAYE@dakar.sn"
	_, err := store.Create(ctx, dup, "mot-de-passe")
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUpdate_RoleAndOrgImmutable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)

	u, err := store.Create(ctx, models.User{
		FullName:  "Marie Faye",
		Email:     "marie.faye@dakar.sn",
		Role:      models.RoleDioceseAdmin,
		DioceseID: "DAKAR",
	}, "mot-de-passe")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = store.Update(ctx, u.ID, models.User{
		FullName:  "Marie Faye-Diallo",
		Role:      models.RoleSuperAdmin,
		DioceseID: "THIES",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.FullName != "Marie Faye-Diallo" {
		t.Errorf("full name: got %q", got.FullName)
	}
	if got.Role != models.RoleDioceseAdmin {
		t.Errorf("role should be immutable: got %q", got.Role)
	}
	if got.DioceseID != "DAKAR" {
		t.Errorf("diocese should be immutable: got %q", got.DioceseID)
	}
}

func TestSetPassword_ClearsFirstLoginFlag(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)

	u, err := store.Create(ctx, models.User{
		FullName:  "Marie Faye",
		Email:     "marie.faye@dakar.sn",
		Role:      models.RoleDioceseAdmin,
		DioceseID: "DAKAR",
	}, "mot-de-passe")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.SetPassword(ctx, u.ID, "nouveau-mot-de-passe"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.MustChangePassword {
		t.Error("setting a password should clear the first-login flag")
	}
	if !userstore.VerifyPassword(got, "nouveau-mot-de-passe") {
		t.Error("new password rejected")
	}
	if userstore.VerifyPassword(got, "mot-de-passe") {
		t.Error("old password still accepted")
	}
}

func TestFetcher_NilForDisabledAndUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := userstore.New(db)
	fetcher := userstore.NewFetcher(store, zap.NewNop())

	u, err := store.Create(ctx, models.User{
		FullName:  "Marie Faye",
		Email:     "marie.faye@dakar.sn",
		Role:      models.RoleDioceseAdmin,
		DioceseID: "DAKAR",
	}, "mot-de-passe")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if su := fetcher.FetchUser(ctx, u.ID.Hex()); su == nil {
		t.Fatal("expected a session user for an active account")
	} else if su.Role != models.RoleDioceseAdmin || su.DioceseID != "DAKAR" {
		t.Errorf("session view: got role=%q diocese=%q", su.Role, su.DioceseID)
	}

	if err := store.SetStatus(ctx, u.ID, status.Disabled); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if su := fetcher.FetchUser(ctx, u.ID.Hex()); su != nil {
		t.Error("disabled accounts must not resolve to a session user")
	}

	if su := fetcher.FetchUser(ctx, "not-an-object-id"); su != nil {
		t.Error("malformed ids must not resolve to a session user")
	}
}
