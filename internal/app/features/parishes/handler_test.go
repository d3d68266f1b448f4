package parishes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samaquete/jangubi/internal/app/features/parishes"
	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/samaquete/jangubi/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*parishes.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := parishes.NewHandler(parishstore.New(db), diocesestore.New(db), nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestHandleList_ScopedToDiocese(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	f.CreateParish(ctx, "Paroisse Sainte-Anne", "THIES")

	req := testutil.WithUser(testutil.NewRequest("GET", "/parishes"), testutil.DioceseAdminUser("DAKAR"))
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list []models.Parish
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Paroisse Saint-Joseph" {
		t.Errorf("expected only the DAKAR parish, got %+v", list)
	}
}

func TestHandleList_ParishAdminSeesSiblings(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	own := f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	f.CreateParish(ctx, "Paroisse Saint-Pierre", "DAKAR")
	f.CreateParish(ctx, "Paroisse Sainte-Anne", "THIES")

	req := testutil.WithUser(testutil.NewRequest("GET", "/parishes"), testutil.ParishAdminUser("DAKAR", own.ID))
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)

	var list []models.Parish
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("parish admin should see both DAKAR parishes, got %d", len(list))
	}
}

func TestHandleCreate_DioceseAdminOwnDioceseOnly(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateDiocese(ctx, "THIES", "Diocèse de Thiès")

	body := `{"name":"Paroisse Sainte-Anne","dioceseId":"THIES"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/parishes", strings.NewReader(body)),
		testutil.DioceseAdminUser("DAKAR"),
	)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}

	req = testutil.WithUser(
		httptest.NewRequest("POST", "/parishes", strings.NewReader(body)),
		testutil.DioceseAdminUser("THIES"),
	)
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_UnknownDiocese(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"name":"Paroisse Sainte-Anne","dioceseId":"NOPE"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/parishes", strings.NewReader(body)),
		testutil.SuperAdminUser(),
	)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleCreate_DuplicateNameInDiocese(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	f.CreateDiocese(ctx, "DAKAR", "Archidiocèse de Dakar")
	f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")

	body := `{"name":"paroisse saint-joseph","dioceseId":"DAKAR"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/parishes", strings.NewReader(body)),
		testutil.SuperAdminUser(),
	)
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("case-folded duplicate: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleUpdate_ParishAdminCannotEditSibling(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	own := f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	sibling := f.CreateParish(ctx, "Paroisse Saint-Pierre", "DAKAR")

	body := `{"name":"Nouvelle Paroisse"}`
	req := testutil.WithUser(
		httptest.NewRequest("PUT", "/parishes/"+sibling.ID.Hex(), strings.NewReader(body)),
		testutil.ParishAdminUser("DAKAR", own.ID),
	)
	req = testutil.WithChiURLParam(req, "id", sibling.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleDelete_DioceseAdmin(t *testing.T) {
	h, f := newHandler(t)
	ctx := testutil.TestContext(t)

	parish := f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")

	req := testutil.WithUser(testutil.NewRequest("DELETE", "/parishes/"+parish.ID.Hex()), testutil.DioceseAdminUser("DAKAR"))
	req = testutil.WithChiURLParam(req, "id", parish.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	req = testutil.WithUser(testutil.NewRequest("GET", "/parishes/"+parish.ID.Hex()), testutil.SuperAdminUser())
	req = testutil.WithChiURLParam(req, "id", parish.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted parish should be gone, got %d", rec.Code)
	}
}
