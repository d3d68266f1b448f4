package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	DioceseID string
	ParishID  string
	ChurchID  string
}

// SuperAdminUser returns a TestUser with the super_admin role.
func SuperAdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Super Admin",
		Email: "super@test.sn",
		Role:  models.RoleSuperAdmin,
	}
}

// ArchdioceseAdminUser returns a TestUser with the archdiocese_admin role.
func ArchdioceseAdminUser() TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Archdiocese Admin",
		Email: "archdiocese@test.sn",
		Role:  models.RoleArchdioceseAdmin,
	}
}

// DioceseAdminUser returns a TestUser scoped to the given diocese code.
func DioceseAdminUser(dioceseCode string) TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test Diocese Admin",
		Email:     "diocese@test.sn",
		Role:      models.RoleDioceseAdmin,
		DioceseID: dioceseCode,
	}
}

// ParishAdminUser returns a TestUser scoped to the given parish.
func ParishAdminUser(dioceseCode string, parishID primitive.ObjectID) TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test Parish Admin",
		Email:     "parish@test.sn",
		Role:      models.RoleParishAdmin,
		DioceseID: dioceseCode,
		ParishID:  parishID.Hex(),
	}
}

// ChurchAdminUser returns a TestUser scoped to the given church.
func ChurchAdminUser(dioceseCode string, parishID, churchID primitive.ObjectID) TestUser {
	return TestUser{
		ID:        primitive.NewObjectID().Hex(),
		Name:      "Test Church Admin",
		Email:     "church@test.sn",
		Role:      models.RoleChurchAdmin,
		DioceseID: dioceseCode,
		ParishID:  parishID.Hex(),
		ChurchID:  churchID.Hex(),
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the session middleware and injects the user
// directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		DioceseID: user.DioceseID,
		ParishID:  user.ParishID,
		ChurchID:  user.ChurchID,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}
