package scope_test

import (
	"testing"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var allEntityTypes = []scope.EntityType{
	scope.EntityDiocese,
	scope.EntityParish,
	scope.EntityChurch,
	scope.EntityContent,
	scope.EntityDonation,
	scope.EntityUser,
}

func TestResolve_AllOnlyForGlobalRoles(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()

	principals := []scope.Principal{
		{Role: models.RoleSuperAdmin},
		{Role: models.RoleArchdioceseAdmin},
		{Role: models.RoleDioceseAdmin, DioceseID: "DAKAR"},
		{Role: models.RoleParishAdmin, DioceseID: "DAKAR", ParishID: parishID},
		{Role: models.RoleChurchAdmin, DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID},
		{Role: "visitor"},
	}

	for _, p := range principals {
		wantAll := p.Role == models.RoleSuperAdmin || p.Role == models.RoleArchdioceseAdmin
		for _, et := range allEntityTypes {
			f := scope.Resolve(p, et)
			if f.All != wantAll {
				t.Errorf("Resolve(%s, %s).All = %v, want %v", p.Role, et, f.All, wantAll)
			}
		}
	}
}

func TestResolve_ChurchAdminContentOwnPlusParishValidated(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()
	p := scope.Principal{
		Role:      models.RoleChurchAdmin,
		DioceseID: "THIES",
		ParishID:  parishID,
		ChurchID:  churchID,
	}

	f := scope.Resolve(p, scope.EntityContent)

	own := scope.Entity{DioceseID: "THIES", ParishID: parishID, ChurchID: churchID}
	if !f.Matches(own) {
		t.Error("church admin should see its own church's content")
	}

	// The parish's live catalog is visible: a church runs its collections
	// against parish-level donation types too.
	parishValidated := scope.Entity{DioceseID: "THIES", ParishID: parishID, ValidatedByParish: true}
	if !f.Matches(parishValidated) {
		t.Error("church admin should see its parish's validated content")
	}

	pending := scope.Entity{DioceseID: "THIES", ParishID: parishID, ChurchID: primitive.NewObjectID()}
	if f.Matches(pending) {
		t.Error("church admin must not see a sibling church's pending content")
	}

	parishPending := scope.Entity{DioceseID: "THIES", ParishID: parishID}
	if f.Matches(parishPending) {
		t.Error("church admin must not see unvalidated parish-level content")
	}

	foreign := scope.Entity{DioceseID: "THIES", ParishID: primitive.NewObjectID(), ValidatedByParish: true}
	if f.Matches(foreign) {
		t.Error("church admin must not see another parish's content")
	}
}

func TestCanEdit_ChurchAdminReadsParishContentButCannotTouchIt(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()
	p := scope.Principal{
		Role: models.RoleChurchAdmin, DioceseID: "THIES", ParishID: parishID, ChurchID: churchID,
	}

	parishValidated := scope.Entity{DioceseID: "THIES", ParishID: parishID, ValidatedByParish: true}
	if !scope.CanView(p, scope.EntityContent, parishValidated) {
		t.Error("church admin should view parish-validated content")
	}
	if scope.CanEdit(p, scope.EntityContent, parishValidated) {
		t.Error("church admin must not edit parish-level content")
	}

	own := scope.Entity{DioceseID: "THIES", ParishID: parishID, ChurchID: churchID}
	if !scope.CanEdit(p, scope.EntityContent, own) {
		t.Error("church admin should edit its own church's content")
	}
}

func TestResolve_DioceseAdminFiltersByDiocese(t *testing.T) {
	p := scope.Principal{Role: models.RoleDioceseAdmin, DioceseID: "KAOLACK"}
	f := scope.Resolve(p, scope.EntityParish)

	if !f.Matches(scope.Entity{DioceseID: "KAOLACK"}) {
		t.Error("diocese admin should see parishes of its own diocese")
	}
	if f.Matches(scope.Entity{DioceseID: "ZIGUINCHOR"}) {
		t.Error("diocese admin must not see another diocese's parishes")
	}
}

func TestResolve_ParishAdminOrgReadsWidenToDiocese(t *testing.T) {
	parishID := primitive.NewObjectID()
	p := scope.Principal{Role: models.RoleParishAdmin, DioceseID: "DAKAR", ParishID: parishID}

	// Org-unit reads are diocese-wide.
	f := scope.Resolve(p, scope.EntityParish)
	sibling := scope.Entity{DioceseID: "DAKAR", ParishID: primitive.NewObjectID()}
	if !f.Matches(sibling) {
		t.Error("parish admin should see sibling parishes in its diocese")
	}

	// Managed records stay parish-bound.
	f = scope.Resolve(p, scope.EntityContent)
	if f.Matches(scope.Entity{DioceseID: "DAKAR", ParishID: primitive.NewObjectID()}) {
		t.Error("parish admin must not see another parish's content")
	}
	if !f.Matches(scope.Entity{DioceseID: "DAKAR", ParishID: parishID}) {
		t.Error("parish admin should see its own parish's content")
	}
}

func TestResolve_MissingOrgIDFailsClosed(t *testing.T) {
	cases := []scope.Principal{
		{Role: models.RoleDioceseAdmin},                      // no diocese
		{Role: models.RoleParishAdmin, DioceseID: "DAKAR"},   // no parish
		{Role: models.RoleChurchAdmin, DioceseID: "DAKAR"},   // no parish, no church
		{Role: "unknown_role", DioceseID: "DAKAR"},
	}
	for _, p := range cases {
		f := scope.Resolve(p, scope.EntityContent)
		if !f.None() {
			t.Errorf("Resolve(%+v) should match nothing, got %+v", p, f)
		}
		if f.Matches(scope.Entity{DioceseID: "DAKAR"}) {
			t.Errorf("empty filter for %+v must match no records", p)
		}
	}
}

func TestFilter_Mongo(t *testing.T) {
	parishID := primitive.NewObjectID()

	f := scope.Filter{All: true}
	if len(f.Mongo()) != 0 {
		t.Errorf("ALL filter should render an unrestricted query, got %v", f.Mongo())
	}

	f = scope.Filter{ParishID: parishID}
	q := f.Mongo()
	if got, ok := q["parish_id"]; !ok || got != parishID {
		t.Errorf("parish filter rendered %v", q)
	}

	f = scope.Filter{DioceseID: "THIES"}
	q = f.Mongo()
	if got, ok := q["diocese_id"]; !ok || got != "THIES" {
		t.Errorf("diocese filter rendered %v", q)
	}

	// The widened church filter reaches both the church's own records and
	// the parish's validated ones.
	churchID := primitive.NewObjectID()
	f = scope.Filter{ChurchID: churchID, ParishID: parishID, ParishValidated: true}
	q = f.Mongo()
	or, ok := q["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("widened church filter rendered %v", q)
	}
	if or[0]["church_id"] != churchID {
		t.Errorf("first branch should match the church, got %v", or[0])
	}
	if or[1]["parish_id"] != parishID || or[1]["validated_by_parish"] != true {
		t.Errorf("second branch should match parish validated records, got %v", or[1])
	}

	// The empty filter must match no documents.
	q = scope.Filter{}.Mongo()
	if got, ok := q["_id"]; !ok || got != primitive.NilObjectID {
		t.Errorf("empty filter rendered %v, want a match-nothing query", q)
	}
}

func TestCanEdit_RoleFloors(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()

	churchAdmin := scope.Principal{
		Role: models.RoleChurchAdmin, DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID,
	}
	parishAdmin := scope.Principal{
		Role: models.RoleParishAdmin, DioceseID: "DAKAR", ParishID: parishID,
	}
	dioceseAdmin := scope.Principal{Role: models.RoleDioceseAdmin, DioceseID: "DAKAR"}

	diocese := scope.Entity{DioceseID: "DAKAR"}
	parish := scope.Entity{DioceseID: "DAKAR", ParishID: parishID}
	church := scope.Entity{DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID}

	// Dioceses are editable by the super admin anywhere; the archdiocese
	// admin's writes stop at the metropolitan see.
	if scope.CanEdit(dioceseAdmin, scope.EntityDiocese, diocese) {
		t.Error("diocese admin must not edit diocese records")
	}
	if !scope.CanEdit(scope.Principal{Role: models.RoleSuperAdmin}, scope.EntityDiocese, diocese) {
		t.Error("super admin should edit any diocese")
	}
	archdiocese := scope.Principal{Role: models.RoleArchdioceseAdmin}
	if scope.CanEdit(archdiocese, scope.EntityDiocese, diocese) {
		t.Error("archdiocese admin must not edit a suffragan diocese")
	}
	dakar := scope.Entity{DioceseID: "DAKAR", Metropolitan: true}
	if !scope.CanEdit(archdiocese, scope.EntityDiocese, dakar) {
		t.Error("archdiocese admin should edit the metropolitan see")
	}

	// Parishes require diocese admin or above.
	if scope.CanEdit(parishAdmin, scope.EntityParish, parish) {
		t.Error("parish admin must not edit parish org records")
	}
	if !scope.CanEdit(dioceseAdmin, scope.EntityParish, parish) {
		t.Error("diocese admin should edit parishes in its diocese")
	}

	// Churches are editable from church admin up, within scope.
	if !scope.CanEdit(churchAdmin, scope.EntityChurch, church) {
		t.Error("church admin should edit its own church")
	}
	otherChurch := scope.Entity{DioceseID: "DAKAR", ParishID: primitive.NewObjectID(), ChurchID: primitive.NewObjectID()}
	if scope.CanEdit(churchAdmin, scope.EntityChurch, otherChurch) {
		t.Error("church admin must not edit a church outside its parish")
	}
	sibling := scope.Entity{DioceseID: "DAKAR", ParishID: parishID, ChurchID: primitive.NewObjectID()}
	if scope.CanEdit(churchAdmin, scope.EntityChurch, sibling) {
		t.Error("church admin must not edit a sibling church in its parish")
	}
	if !scope.CanView(churchAdmin, scope.EntityChurch, sibling) {
		t.Error("church admin should still see sibling churches")
	}
}

func TestCanCreate_ChurchAdminOwnParishOnly(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()
	p := scope.Principal{
		Role: models.RoleChurchAdmin, DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID,
	}

	own := scope.Entity{DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID}
	if !scope.CanCreate(p, scope.EntityContent, own) {
		t.Error("church admin should create content for its own church")
	}

	foreign := scope.Entity{DioceseID: "DAKAR", ParishID: primitive.NewObjectID(), ChurchID: churchID}
	if scope.CanCreate(p, scope.EntityContent, foreign) {
		t.Error("church admin must not create content for another parish")
	}
}

func TestCanCreate_DioceseSuperAdminOnly(t *testing.T) {
	if !scope.CanCreate(scope.Principal{Role: models.RoleSuperAdmin}, scope.EntityDiocese, scope.Entity{}) {
		t.Error("super admin should create dioceses")
	}
	if scope.CanCreate(scope.Principal{Role: models.RoleArchdioceseAdmin}, scope.EntityDiocese, scope.Entity{}) {
		t.Error("archdiocese admin must not create dioceses")
	}
}

func TestCanDelete_CreatorOrStrictlyAbove(t *testing.T) {
	parishID := primitive.NewObjectID()
	churchID := primitive.NewObjectID()
	churchAdminID := primitive.NewObjectID()
	parishAdminID := primitive.NewObjectID()

	churchAdmin := scope.Principal{
		ID: churchAdminID, Role: models.RoleChurchAdmin,
		DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID,
	}
	parishAdmin := scope.Principal{
		ID: parishAdminID, Role: models.RoleParishAdmin,
		DioceseID: "DAKAR", ParishID: parishID,
	}

	churchAuthored := scope.Entity{
		DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID,
		CreatedBy: churchAdminID, CreatedByRole: models.RoleChurchAdmin,
	}
	parishAuthored := scope.Entity{
		DioceseID: "DAKAR", ParishID: parishID, ChurchID: churchID,
		CreatedBy: parishAdminID, CreatedByRole: models.RoleParishAdmin,
	}

	if !scope.CanDelete(churchAdmin, scope.EntityContent, churchAuthored) {
		t.Error("creator should delete its own content")
	}
	if scope.CanDelete(churchAdmin, scope.EntityContent, parishAuthored) {
		t.Error("church admin must not delete content authored by its parish admin")
	}
	if !scope.CanDelete(parishAdmin, scope.EntityContent, churchAuthored) {
		t.Error("parish admin should delete church-authored content in its parish")
	}
}

func TestCanDelete_DonationsSuperAdminOnly(t *testing.T) {
	parishID := primitive.NewObjectID()
	donation := scope.Entity{DioceseID: "DAKAR", ParishID: parishID}

	if !scope.CanDelete(scope.Principal{Role: models.RoleSuperAdmin}, scope.EntityDonation, donation) {
		t.Error("super admin should delete donations")
	}
	others := []scope.Principal{
		{Role: models.RoleArchdioceseAdmin},
		{Role: models.RoleDioceseAdmin, DioceseID: "DAKAR"},
		{Role: models.RoleParishAdmin, DioceseID: "DAKAR", ParishID: parishID},
	}
	for _, p := range others {
		if scope.CanDelete(p, scope.EntityDonation, donation) {
			t.Errorf("%s must not delete donations", p.Role)
		}
	}
}
