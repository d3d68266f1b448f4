// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/app/system/status"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Fetcher adapts the user store to the session layer: every request
// re-reads the user document so role or org changes and account disables
// take effect without waiting for the session to expire.
type Fetcher struct {
	store *Store
	log   *zap.Logger
}

func NewFetcher(store *Store, log *zap.Logger) *Fetcher {
	return &Fetcher{store: store, log: log}
}

// FetchUser loads the session view of a user. Returns nil for unknown ids,
// malformed ids, and disabled accounts, which signs the session out.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := f.store.GetByID(ctx, oid)
	if err != nil {
		f.log.Debug("session user fetch failed",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	if u.Status != status.Active {
		return nil
	}

	su := &auth.SessionUser{
		ID:                 u.ID.Hex(),
		Name:               u.FullName,
		Email:              u.Email,
		Role:               u.Role,
		DioceseID:          u.DioceseID,
		MustChangePassword: u.MustChangePassword,
	}
	if u.ParishID != nil {
		su.ParishID = u.ParishID.Hex()
	}
	if u.ChurchID != nil {
		su.ChurchID = u.ChurchID.Hex()
	}
	return su
}
