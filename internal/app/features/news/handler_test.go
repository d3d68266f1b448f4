package news_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samaquete/jangubi/internal/app/features/news"
	newsstore "github.com/samaquete/jangubi/internal/app/store/news"
	notificationstore "github.com/samaquete/jangubi/internal/app/store/notifications"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	"github.com/samaquete/jangubi/internal/app/system/notify"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"github.com/samaquete/jangubi/internal/domain/models"
	"github.com/samaquete/jangubi/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h     *news.Handler
	f     *testutil.Fixtures
	notes *notificationstore.Store
	db    *mongo.Database
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := newsstore.New(db)
	notes := notificationstore.New(db)
	pub := validation.NewPublisher(store, notify.New(notes, zap.NewNop()), zap.NewNop())
	h := news.NewHandler(store, parishstore.New(db), pub, nil, zap.NewNop())
	return &env{h: h, f: testutil.NewFixtures(t, db), notes: notes, db: db}
}

func TestHandleCreate_SanitizesContent(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")

	body := `{"title":"Kermesse","content":"<p>Bonjour</p><script>alert(1)</script>","category":"Annonce","parishId":"` + parish.ID.Hex() + `"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/news", strings.NewReader(body)),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var n models.News
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if strings.Contains(n.Content, "script") {
		t.Errorf("content should be sanitized, got %q", n.Content)
	}
	if n.Published {
		t.Error("new news must start unpublished")
	}
	if n.Excerpt == "" || strings.Contains(n.Excerpt, "<") {
		t.Errorf("excerpt should be derived plain text, got %q", n.Excerpt)
	}
}

func TestHandleCreate_ChurchAdminRejected(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	church := e.f.CreateChurch(ctx, "Église Saint-Michel", parish)

	body := `{"title":"Kermesse","content":"<p>Bonjour</p>","category":"Annonce","parishId":"` + parish.ID.Hex() + `"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/news", strings.NewReader(body)),
		testutil.ChurchAdminUser("DAKAR", parish.ID, church.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleCreate_UnknownCategory(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")

	body := `{"title":"Kermesse","content":"<p>Bonjour</p>","category":"Gossip","parishId":"` + parish.ID.Hex() + `"}`
	req := testutil.WithUser(
		httptest.NewRequest("POST", "/news", strings.NewReader(body)),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	rec := httptest.NewRecorder()
	e.h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandlePublish_NotifiesOnce(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	n := e.f.CreateNews(ctx, "Kermesse paroissiale", parish, admin.ID, "parish_admin", false)

	for i := 0; i < 2; i++ {
		req := testutil.WithUser(
			testutil.NewRequest("POST", "/news/"+n.ID.Hex()+"/publish"),
			testutil.ParishAdminUser("DAKAR", parish.ID),
		)
		req = testutil.WithChiURLParam(req, "id", n.ID.Hex())
		rec := httptest.NewRecorder()
		e.h.HandlePublish(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("publish #%d: expected status %d, got %d: %s", i+1, http.StatusOK, rec.Code, rec.Body.String())
		}
	}

	notes, err := e.notes.ListByParish(ctx, parish.ID, 10)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notes))
	}
	if !strings.Contains(notes[0].Message, "Kermesse paroissiale") {
		t.Errorf("notification should name the article, got %q", notes[0].Message)
	}
}

func TestHandleUnpublish_NeverNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	n := e.f.CreateNews(ctx, "Kermesse paroissiale", parish, admin.ID, "parish_admin", true)

	req := testutil.WithUser(
		testutil.NewRequest("POST", "/news/"+n.ID.Hex()+"/unpublish"),
		testutil.ParishAdminUser("DAKAR", parish.ID),
	)
	req = testutil.WithChiURLParam(req, "id", n.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleUnpublish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	notes, err := e.notes.ListByParish(ctx, parish.ID, 10)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("unpublish must not notify, got %d notifications", len(notes))
	}
}

func TestHandleList_ScopedToParish(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	other := e.f.CreateParish(ctx, "Paroisse Saint-Pierre", "DAKAR")
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	e.f.CreateNews(ctx, "Kermesse", parish, admin.ID, "parish_admin", false)
	e.f.CreateNews(ctx, "Pèlerinage", other, admin.ID, "parish_admin", false)

	req := testutil.WithUser(testutil.NewRequest("GET", "/news"), testutil.ParishAdminUser("DAKAR", parish.ID))
	rec := httptest.NewRecorder()
	e.h.HandleList(rec, req)

	var list []models.News
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Kermesse" {
		t.Errorf("expected only the own-parish article, got %+v", list)
	}
}

func TestHandleDelete_ForeignParishAdminCannotSee(t *testing.T) {
	e := newEnv(t)
	ctx := testutil.TestContext(t)

	parish := e.f.CreateParish(ctx, "Paroisse Saint-Joseph", "DAKAR")
	other := e.f.CreateParish(ctx, "Paroisse Saint-Pierre", "DAKAR")
	admin := e.f.CreateUser(ctx, "Abbé", "abbe@jangubi.sn", "parish_admin", "DAKAR", &parish.ID, nil)
	n := e.f.CreateNews(ctx, "Kermesse", parish, admin.ID, "parish_admin", false)

	req := testutil.WithUser(testutil.NewRequest("DELETE", "/news/"+n.ID.Hex()),
		testutil.ParishAdminUser("DAKAR", other.ID))
	req = testutil.WithChiURLParam(req, "id", n.ID.Hex())
	rec := httptest.NewRecorder()
	e.h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("out-of-scope record should read as absent, got %d", rec.Code)
	}
}
