// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/branchhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/branchhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/branchhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/branchhub/internal/app/features/logout"
	mefeature "github.com/dalemusser/branchhub/internal/app/features/me"
	reportsfeature "github.com/dalemusser/branchhub/internal/app/features/reports"
	usersfeature "github.com/dalemusser/branchhub/internal/app/features/users"
	"github.com/dalemusser/branchhub/internal/app/store/branches"
	"github.com/dalemusser/branchhub/internal/app/store/branchreports"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/apitoken"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/reporting"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// BranchHub applies session/bearer middleware globally and mounts one
// feature router per area. Each router declares its minimum role with
// SessionManager.RequireRole.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.BranchHubMongoDatabase

	sessionKey := appCfg.SessionKey
	if sessionKey == "" {
		// ValidateConfig already refused this in prod.
		logger.Warn("session_key not set; generated a random one, sessions will not survive a restart")
		sessionKey = auth.GenerateSessionKey()
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(sessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUnknownRequiredPolicy(appCfg.UnknownRequiredRole)

	// Fresh user data on each request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))

	var tokens *apitoken.Issuer
	if appCfg.TokenSecret != "" {
		tokens, err = apitoken.NewIssuer(appCfg.TokenSecret, appCfg.TokenTTL)
		if err != nil {
			logger.Error("token issuer init failed", zap.Error(err))
			return nil, err
		}
		sessionMgr.SetTokenVerifier(tokens)
	} else {
		logger.Info("token_secret not set; bearer tokens disabled")
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if appCfg.TrustProxy {
		// Rewrites RemoteAddr from X-Forwarded-For/X-Real-IP; the login rate
		// limiter keys on RemoteAddr.
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads the SessionUser into context from the
	// bearer token or session cookie.
	r.Use(sessionMgr.LoadSessionUser)
	// Cookie-authenticated writes must come from our own origin.
	r.Use(sessionMgr.RejectCrossOrigin)

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.BranchHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, tokens, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error envelopes
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Signed-in user
	r.Mount("/me", mefeature.Routes(mefeature.NewHandler(), sessionMgr))

	// User listing
	usersHandler := usersfeature.NewHandler(db, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Branch reports
	branchStore := branches.New(db)
	reportStore := branchreports.New(db)
	runner := reporting.NewRunner(branchStore, reporting.UserSource{Users: userstore.New(db)}, reportStore, logger)
	reportsHandler := reportsfeature.NewHandler(branchStore, reportStore, runner, errLog, logger)
	r.Mount("/branches", reportsfeature.BranchRoutes(reportsHandler, sessionMgr))
	r.Mount("/reports", reportsfeature.RunRoutes(reportsHandler, sessionMgr))

	return r, nil
}
