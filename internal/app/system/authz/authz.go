// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the principal's role (lowercased), name, ObjectID, and a
/// found flag. A malformed user id in the session fails closed: ok=false
// always means the request must be treated as anonymous.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the current user is a super admin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperAdmin
}

// IsGlobalAdmin reports whether the current user sees all records:
// super admins and archdiocese admins are unrestricted readers.
func IsGlobalAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == models.RoleSuperAdmin || role == models.RoleArchdioceseAdmin)
}

// IsDioceseAdmin reports whether the current user is a diocese admin.
func IsDioceseAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleDioceseAdmin
}

// IsParishAdmin reports whether the current user is a parish admin.
func IsParishAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleParishAdmin
}

// IsChurchAdmin reports whether the current user is a church admin.
func IsChurchAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleChurchAdmin
}

// UserDioceseID returns the principal's diocese code, or "" when absent.
func UserDioceseID(r *http.Request) string {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return ""
	}
	return user.DioceseID
}

// UserParishID returns the principal's parish ObjectID.
// Returns NilObjectID when the user has no parish.
func UserParishID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ParishID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.ParishID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// UserChurchID returns the principal's church ObjectID.
// Returns NilObjectID when the user has no church.
func UserChurchID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ChurchID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.ChurchID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessDiocese reports whether the current user may read records in
// the given diocese. Global admins always can; everyone else only their
// own diocese.
func CanAccessDiocese(r *http.Request, dioceseCode string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == models.RoleSuperAdmin || role == models.RoleArchdioceseAdmin {
		return true
	}
	own := UserDioceseID(r)
	return own != "" && own == dioceseCode
}

// CanAccessParish reports whether the current user may read records owned
// by the given parish. Diocese admins are parish-blind here on purpose:
// parish membership checks that need the parish's diocese go through the
// scope policy, which has the parish document.
func CanAccessParish(r *http.Request, parishID primitive.ObjectID) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == models.RoleSuperAdmin || role == models.RoleArchdioceseAdmin {
		return true
	}
	own := UserParishID(r)
	return own != primitive.NilObjectID && own == parishID
}

// CanAccessChurch reports whether the current user may read records owned
// by the given church. Parish admins can reach every church in their
// parish only via the scope policy; this helper checks direct ownership.
func CanAccessChurch(r *http.Request, churchID primitive.ObjectID) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == models.RoleSuperAdmin || role == models.RoleArchdioceseAdmin {
		return true
	}
	own := UserChurchID(r)
	return own != primitive.NilObjectID && own == churchID
}
