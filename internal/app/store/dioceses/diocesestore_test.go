package diocesestore_test

import (
	"testing"

	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	"github.com/samaquete/jangubi/internal/app/system/indexes"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/samaquete/jangubi/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureSeeded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := diocesestore.New(db)

	if err := store.EnsureSeeded(ctx); err != nil {
		t.Fatalf("EnsureSeeded failed: %v", err)
	}

	n, err := store.Count(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if int(n) != len(diocesestore.Fixed) {
		t.Errorf("expected %d seeded dioceses, got %d", len(diocesestore.Fixed), n)
	}

	dakar, err := store.GetByCode(ctx, "DAKAR")
	if err != nil {
		t.Fatalf("GetByCode(DAKAR) failed: %v", err)
	}
	if !dakar.IsMetropolitan {
		t.Error("expected Dakar to be metropolitan")
	}
	if !dakar.IsActive {
		t.Error("expected seeded dioceses to start active")
	}
}

func TestEnsureSeeded_PreservesLocalEdits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := diocesestore.New(db)

	if err := store.EnsureSeeded(ctx); err != nil {
		t.Fatalf("first EnsureSeeded failed: %v", err)
	}

	thies, err := store.GetByCode(ctx, "THIES")
	if err != nil {
		t.Fatalf("GetByCode(THIES) failed: %v", err)
	}
	if err := store.SetActive(ctx, thies.ID, false); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if err := store.EnsureSeeded(ctx); err != nil {
		t.Fatalf("second EnsureSeeded failed: %v", err)
	}

	thies, err = store.GetByCode(ctx, "THIES")
	if err != nil {
		t.Fatalf("GetByCode(THIES) after reseed failed: %v", err)
	}
	if thies.IsActive {
		t.Error("reseeding should not reactivate a deactivated diocese")
	}

	n, err := store.Count(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if int(n) != len(diocesestore.Fixed) {
		t.Errorf("reseeding should not duplicate: expected %d, got %d", len(diocesestore.Fixed), n)
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("ensure indexes failed: %v", err)
	}
	store := diocesestore.New(db)

	if _, err := store.Create(ctx, models.Diocese{Code: "MBOUR", Name: "Diocèse de Mbour"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Diocese{Code: "MBOUR", Name: "Diocèse de Mbour bis"})
	if err != diocesestore.ErrDuplicateDiocese {
		t.Errorf("expected ErrDuplicateDiocese, got %v", err)
	}
}

func TestUpdate_CodeImmutable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := diocesestore.New(db)

	d, err := store.Create(ctx, models.Diocese{Code: "MBOUR", Name: "Diocèse de Mbour"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.Update(ctx, d.ID, models.Diocese{Code: "AUTRE", Name: "Diocèse renommé"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Code != "MBOUR" {
		t.Errorf("code should be immutable: got %q", got.Code)
	}
	if got.Name != "Diocèse renommé" {
		t.Errorf("name: got %q", got.Name)
	}
}
