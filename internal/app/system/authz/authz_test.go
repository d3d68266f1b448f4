package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_Anonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	role, name, uid, ok := authz.UserCtx(req)
	if ok {
		t.Fatal("expected ok=false for anonymous request")
	}
	if role != "visitor" || name != "" || uid != primitive.NilObjectID {
		t.Errorf("got (%q, %q, %v), want visitor defaults", role, name, uid)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-a-hex-id", Role: "parish_admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("malformed user id must fail closed")
	}
}

func TestUserCtx_NormalizesRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Name: "Abbé Diouf",
		Role: "Parish_Admin",
	})

	role, name, _, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "parish_admin" {
		t.Errorf("role = %q, want parish_admin", role)
	}
	if name != "Abbé Diouf" {
		t.Errorf("name = %q", name)
	}
}

func TestIsGlobalAdmin(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"super_admin", true},
		{"archdiocese_admin", true},
		{"diocese_admin", false},
		{"parish_admin", false},
		{"church_admin", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{
				ID:   primitive.NewObjectID().Hex(),
				Role: tt.role,
			})
			if got := authz.IsGlobalAdmin(req); got != tt.want {
				t.Errorf("IsGlobalAdmin(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestCanAccessDiocese(t *testing.T) {
	uid := primitive.NewObjectID().Hex()

	tests := []struct {
		name    string
		user    *auth.SessionUser
		diocese string
		want    bool
	}{
		{"super admin any diocese", &auth.SessionUser{ID: uid, Role: "super_admin"}, "THIES", true},
		{"archdiocese admin any diocese", &auth.SessionUser{ID: uid, Role: "archdiocese_admin"}, "KOLDA", true},
		{"diocese admin own diocese", &auth.SessionUser{ID: uid, Role: "diocese_admin", DioceseID: "THIES"}, "THIES", true},
		{"diocese admin other diocese", &auth.SessionUser{ID: uid, Role: "diocese_admin", DioceseID: "THIES"}, "DAKAR", false},
		{"parish admin own diocese", &auth.SessionUser{ID: uid, Role: "parish_admin", DioceseID: "DAKAR", ParishID: primitive.NewObjectID().Hex()}, "DAKAR", true},
		{"diocese admin without diocese", &auth.SessionUser{ID: uid, Role: "diocese_admin"}, "DAKAR", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = auth.WithTestUser(req, tt.user)
			if got := authz.CanAccessDiocese(req, tt.diocese); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAccessParish(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	parish := primitive.NewObjectID()
	other := primitive.NewObjectID()

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: uid, Role: "parish_admin", DioceseID: "DAKAR", ParishID: parish.Hex(),
	})

	if !authz.CanAccessParish(req, parish) {
		t.Error("parish admin must access own parish")
	}
	if authz.CanAccessParish(req, other) {
		t.Error("parish admin must not access another parish")
	}
}

func TestCanAccessChurch(t *testing.T) {
	uid := primitive.NewObjectID().Hex()
	church := primitive.NewObjectID()
	other := primitive.NewObjectID()

	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID: uid, Role: "church_admin",
		DioceseID: "DAKAR",
		ParishID:  primitive.NewObjectID().Hex(),
		ChurchID:  church.Hex(),
	})

	if !authz.CanAccessChurch(req, church) {
		t.Error("church admin must access own church")
	}
	if authz.CanAccessChurch(req, other) {
		t.Error("church admin must not access another church")
	}
}

func TestHasAnyRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Role: "diocese_admin",
	})

	if !authz.HasAnyRole(req, "parish_admin", "diocese_admin") {
		t.Error("expected match on diocese_admin")
	}
	if authz.HasAnyRole(req, "super_admin") {
		t.Error("unexpected match on super_admin")
	}
	if authz.HasAnyRole(httptest.NewRequest("GET", "/", nil), "diocese_admin") {
		t.Error("anonymous request must not match any role")
	}
}
