package donationtypes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samaquete/jangubi/internal/app/features/donationtypes"
	donationtypestore "github.com/samaquete/jangubi/internal/app/store/donationtypes"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/samaquete/jangubi/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h      *donationtypes.Handler
	f      *testutil.Fixtures
	mirror *donationtypestore.Mirror
	db     *mongo.Database
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := donationtypestore.New(db)
	mirror := donationtypestore.NewMirror(db)
	wf := validation.New(store, mirror, zap.NewNop())
	h := donationtypes.NewHandler(store, mirror, parishstore.New(db), wf, nil, zap.NewNop())
	return &env{h: h, f: testutil.NewFixtures(t, db), mirror: mirror, db: db}
}

func (e *env) publicCount(t *testing.T) int64 {
	t.Helper()
	n, err := e.db.Collection("donation_types_public").CountDocuments(testutil.TestContext(t), bson.M{})
	if err != nil {
		t.Fatalf("failed to count public donation types: %v", err)
	}
	return n
}

func TestHandleCreate_ParishAdminBornValidatedAndMirrored(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")

	body := `{"name":"Quête dominicale","parishId":"` + parish.ID.Hex() + `","defaultAmounts":[500,1000,2000,5000]}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/donation-types", strings.NewReader(body)),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var dt models.DonationType
	if err := json.Unmarshal(rec.Body.Bytes(), &dt); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !dt.ValidatedByParish {
		t.Error("parish-authored donation type should be born validated")
	}
	if n := e.publicCount(t); n != 1 {
		t.Errorf("expected 1 mirrored record, got %d", n)
	}
}

func TestHandleCreate_ChurchAdminStartsPending(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)

	body := `{"name":"Denier du culte","parishId":"` + parish.ID.Hex() + `","churchId":"` + church.ID.Hex() + `"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/donation-types", strings.NewReader(body)),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var dt models.DonationType
	if err := json.Unmarshal(rec.Body.Bytes(), &dt); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if dt.ValidatedByParish {
		t.Error("church-authored donation type must await parish validation")
	}
	if n := e.publicCount(t); n != 0 {
		t.Errorf("pending record must not reach the mirror, got %d", n)
	}
}

func TestHandleValidate_PromotesToMirror(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	creator := e.f.CreateUser(ctx, "Curé", "cure@jangubi.sn", "church_admin", "DAKAR", &parish.ID, &church.ID)
	dt := e.f.CreateDonationType(ctx, "Denier du culte", parish, &church.ID, creator.ID, "church_admin", false)

	req := testutil.WithUser(
		testutil.NewRequest("POST", "/donation-types/"+dt.ID.Hex()+"/validate"),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleValidate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if n := e.publicCount(t); n != 1 {
		t.Errorf("validated active record should be mirrored, got %d", n)
	}
}

func TestHandleValidate_ChurchAdminRejected(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	creator := e.f.CreateUser(ctx, "Curé", "cure@jangubi.sn", "church_admin", "DAKAR", &parish.ID, &church.ID)
	dt := e.f.CreateDonationType(ctx, "Denier du culte", parish, &church.ID, creator.ID, "church_admin", false)

	req := testutil.WithUser(
		testutil.NewRequest("POST", "/donation-types/"+dt.ID.Hex()+"/validate"),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleValidate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleSync_UnvalidatedIsPreconditionFailed(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	creator := e.f.CreateUser(ctx, "Curé", "cure@jangubi.sn", "church_admin", "DAKAR", &parish.ID, &church.ID)
	dt := e.f.CreateDonationType(ctx, "Denier du culte", parish, &church.ID, creator.ID, "church_admin", false)

	req := testutil.WithUser(
		testutil.NewRequest("POST", "/donation-types/"+dt.ID.Hex()+"/sync"),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleSync(rec, req)

	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected status %d, got %d", http.StatusPreconditionFailed, rec.Code)
	}
}

func TestHandleSetActive_DeactivateRemovesFromMirror(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	dt := e.f.CreateDonationType(ctx, "Quête dominicale", parish, nil, admin.ID, "parish_admin", true)

	syncReq := testutil.WithUser(
		testutil.NewRequest("POST", "/donation-types/"+dt.ID.Hex()+"/sync"),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	syncReq = testutil.WithChiURLParam(syncReq, "id", dt.ID.Hex())
	e.h.HandleSync(httptest.NewRecorder(), syncReq)
	if n := e.publicCount(t); n != 1 {
		t.Fatalf("expected 1 mirrored record before deactivation, got %d", n)
	}

	body := `{"active":false}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/donation-types/"+dt.ID.Hex()+"/active", strings.NewReader(body)),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleSetActive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if n := e.publicCount(t); n != 0 {
		t.Errorf("deactivated record must leave the mirror, got %d", n)
	}
}

func TestHandlePending_ListsChurchSubmissions(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	creator := e.f.CreateUser(ctx, "Curé", "cure@jangubi.sn", "church_admin", "DAKAR", &parish.ID, &church.ID)
	e.f.CreateDonationType(ctx, "Denier du culte", parish, &church.ID, creator.ID, "church_admin", false)
	e.f.CreateDonationType(ctx, "Quête dominicale", parish, nil, creator.ID, "parish_admin", true)

	req := testutil.WithUser(
		testutil.NewRequest("GET", "/donation-types/pending"),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandlePending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list []models.DonationType
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Denier du culte" {
		t.Errorf("expected only the pending submission, got %+v", list)
	}
}

func TestHandleDelete_ChurchAdminCannotDeleteParishAuthored(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	dt := e.f.CreateDonationType(ctx, "Quête dominicale", parish, &church.ID, admin.ID, "parish_admin", true)

	req := testutil.WithUser(
		testutil.NewRequest("DELETE", "/donation-types/"+dt.ID.Hex()),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleDelete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleList_ChurchAdminSeesOwnPlusParishValidated(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	sibling := e.f.CreateChurch(ctx, "Église Sainte-Thérèse", parish)
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)

	e.f.CreateDonationType(ctx, "Quête dominicale", parish, nil, admin.ID, "parish_admin", true)
	e.f.CreateDonationType(ctx, "Réfection du toit", parish, &church.ID, admin.ID, "church_admin", false)
	e.f.CreateDonationType(ctx, "Chorale de Sainte-Thérèse", parish, &sibling.ID, admin.ID, "church_admin", false)

	req := testutil.WithUser(testutil.NewRequest("GET", "/donation-types"),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID))
	rec := httptest.NewRecorder()
	e.h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var list []models.DonationType
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	names := make(map[string]bool, len(list))
	for _, dt := range list {
		names[dt.Name] = true
	}
	if len(list) != 2 || !names["Quête dominicale"] || !names["Réfection du toit"] {
		t.Errorf("church admin should see its own types plus the parish's validated ones, got %+v", names)
	}
}

func TestHandleGet_ChurchAdminReadsParishValidated(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	dt := e.f.CreateDonationType(ctx, "Quête dominicale", parish, nil, admin.ID, "parish_admin", true)

	req := testutil.WithUser(
		testutil.NewRequest("GET", "/donation-types/"+dt.ID.Hex()),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	req = testutil.WithChiURLParam(req, "id", dt.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// Reading is as far as it goes: the parish's record is not editable.
	body := `{"name":"Quête dominicale","defaultAmounts":[100,200,500,1000]}`
	upd := testutil.WithUser(
		httptest.NewRequest("PUT", "/donation-types/"+dt.ID.Hex(), strings.NewReader(body)),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	upd = testutil.WithChiURLParam(upd, "id", dt.ID.Hex())
	rec = httptest.NewRecorder()
	e.h.HandleUpdate(rec, upd)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}
