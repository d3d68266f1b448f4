// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	auditlogfeature "github.com/samaquete/jangubi/internal/app/features/auditlog"
	churchesfeature "github.com/samaquete/jangubi/internal/app/features/churches"
	diocesesfeature "github.com/samaquete/jangubi/internal/app/features/dioceses"
	donationsfeature "github.com/samaquete/jangubi/internal/app/features/donations"
	donationtypesfeature "github.com/samaquete/jangubi/internal/app/features/donationtypes"
	healthfeature "github.com/samaquete/jangubi/internal/app/features/health"
	loginfeature "github.com/samaquete/jangubi/internal/app/features/login"
	logoutfeature "github.com/samaquete/jangubi/internal/app/features/logout"
	newsfeature "github.com/samaquete/jangubi/internal/app/features/news"
	notificationsfeature "github.com/samaquete/jangubi/internal/app/features/notifications"
	parishesfeature "github.com/samaquete/jangubi/internal/app/features/parishes"
	prayertimesfeature "github.com/samaquete/jangubi/internal/app/features/prayertimes"
	reportsfeature "github.com/samaquete/jangubi/internal/app/features/reports"
	usersfeature "github.com/samaquete/jangubi/internal/app/features/users"
	"github.com/samaquete/jangubi/internal/app/store/audit"
	churchstore "github.com/samaquete/jangubi/internal/app/store/churches"
	diocesestore "github.com/samaquete/jangubi/internal/app/store/dioceses"
	donationstore "github.com/samaquete/jangubi/internal/app/store/donations"
	donationtypestore "github.com/samaquete/jangubi/internal/app/store/donationtypes"
	newsstore "github.com/samaquete/jangubi/internal/app/store/news"
	notificationstore "github.com/samaquete/jangubi/internal/app/store/notifications"
	parishstore "github.com/samaquete/jangubi/internal/app/store/parishes"
	prayertimestore "github.com/samaquete/jangubi/internal/app/store/prayertimes"
	userstore "github.com/samaquete/jangubi/internal/app/store/users"
	"github.com/samaquete/jangubi/internal/app/system/auditlog"
	"github.com/samaquete/jangubi/internal/app/system/auth"
	"github.com/samaquete/jangubi/internal/app/system/notify"
	"github.com/samaquete/jangubi/internal/app/system/ratelimit"
	"github.com/samaquete/jangubi/internal/app/workflow/validation"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. Everything here is JSON: the
// service is the API backend for the admin dashboard and the mobile app
// reads the public mirror collections directly.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase

	// Stores.
	users := userstore.New(db)
	dioceses := diocesestore.New(db)
	parishes := parishstore.New(db)
	churches := churchstore.New(db)
	types := donationtypestore.New(db)
	typesMirror := donationtypestore.NewMirror(db)
	prayers := prayertimestore.New(db)
	prayersMirror := prayertimestore.NewMirror(db)
	news := newsstore.New(db)
	donations := donationstore.New(db)
	notes := notificationstore.New(db)
	auditStore := audit.New(db)

	// The session layer re-reads the user document on every request, so
	// role changes and account disables take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(users, logger))

	// Shared services.
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	notifier := notify.New(notes, logger)
	typesWorkflow := validation.New(types, typesMirror, logger)
	prayersWorkflow := validation.New(prayers, prayersMirror, logger)
	publisher := validation.NewPublisher(news, notifier, logger)
	loginLimiter := ratelimit.NewLoginLimiter(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow,
	)

	r := chi.NewRouter()

	// Global auth middleware: loads the session user into context so all
	// handlers can read the principal.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication.
	loginHandler := loginfeature.NewHandler(users, sessionMgr, auditLog, loginLimiter, logger)
	r.Mount("/auth", loginfeature.Routes(loginHandler, sessionMgr))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Everything below requires a signed-in admin; per-record scope and
	// role checks happen inside the handlers.
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)

		r.Mount("/dioceses", diocesesfeature.Routes(
			diocesesfeature.NewHandler(dioceses, auditLog, logger)))

		r.Mount("/parishes", parishesfeature.Routes(
			parishesfeature.NewHandler(parishes, dioceses, auditLog, logger)))

		r.Mount("/churches", churchesfeature.Routes(
			churchesfeature.NewHandler(churches, parishes, auditLog, logger)))

		r.Mount("/donation-types", donationtypesfeature.Routes(
			donationtypesfeature.NewHandler(types, typesMirror, parishes, typesWorkflow, auditLog, logger)))

		r.Mount("/prayer-times", prayertimesfeature.Routes(
			prayertimesfeature.NewHandler(prayers, prayersMirror, parishes, prayersWorkflow, notifier, auditLog, logger)))

		r.Mount("/news", newsfeature.Routes(
			newsfeature.NewHandler(news, parishes, publisher, auditLog, logger)))

		r.Mount("/donations", donationsfeature.Routes(
			donationsfeature.NewHandler(donations, parishes, notifier, auditLog, logger)))

		r.Mount("/users", usersfeature.Routes(
			usersfeature.NewHandler(users, auditLog, logger)))

		r.Mount("/notifications", notificationsfeature.Routes(
			notificationsfeature.NewHandler(notes, logger)))

		r.Mount("/reports", reportsfeature.Routes(
			reportsfeature.NewHandler(dioceses, parishes, churches, users, types, prayers, news, donations, logger)))

		r.Mount("/audit-log", auditlogfeature.Routes(
			auditlogfeature.NewHandler(auditStore, logger)))
	})

	return r, nil
}
