// internal/app/system/authz/principal.go
package authz

import (
	"net/http"

	"github.com/samaquete/jangubi/internal/app/policy/scope"
)

// Principal builds the scope principal for the current request. Anonymous
// or malformed sessions produce a zero principal, which every scope
// resolution fails closed on.
func Principal(r *http.Request) scope.Principal {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return scope.Principal{}
	}
	return scope.Principal{
		ID:        userID,
		Role:      role,
		DioceseID: UserDioceseID(r),
		ParishID:  UserParishID(r),
		ChurchID:  UserChurchID(r),
	}
}
