// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/normalize"
	"github.com/samaquete/jangubi/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SuperAdminEmail != "" {
		return ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger)
	}
	return nil
}

// ensureSuperAdmin guarantees a super admin account exists for the given
// email. A missing account is created with the configured password and a
// forced password change; an existing account with a lesser role is
// promoted and unbound from its diocese, parish, and church.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	email = normalize.Email(email)

	u, err := users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		if password == "" {
			return fmt.Errorf("superadmin_password is required to create the super admin account")
		}
		if _, err := users.Create(ctx, models.User{
			FullName: "Super Admin",
			Email:    email,
			Role:     models.RoleSuperAdmin,
		}, password); err != nil {
			return fmt.Errorf("create super admin: %w", err)
		}
		logger.Info("created super admin account", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up super admin: %w", err)
	}

	if u.Role == models.RoleSuperAdmin {
		return nil
	}

	// Promotion bypasses the store, which keeps role immutable on purpose.
	_, err = deps.MongoDatabase.Collection("users").UpdateByID(ctx, u.ID, bson.M{
		"$set": bson.M{
			"role":       models.RoleSuperAdmin,
			"updated_at": time.Now().UTC(),
		},
		"$unset": bson.M{
			"diocese_id": "",
			"parish_id":  "",
			"church_id":  "",
		},
	})
	if err != nil {
		return fmt.Errorf("promote super admin: %w", err)
	}
	logger.Info("promoted existing user to super admin",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
