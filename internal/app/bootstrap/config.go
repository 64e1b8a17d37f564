// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/apitoken"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for BranchHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BRANCHHUB_MONGO_URI, BRANCHHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "branchhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "session_key", Default: "", Desc: "Session signing key (required in prod; a random key is generated in dev)"},
	{Name: "session_name", Default: "branchhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime (e.g., 24h, 30m)"},

	// Bearer tokens
	{Name: "token_secret", Default: "", Desc: "HMAC secret for API bearer tokens (blank disables tokens)"},
	{Name: "token_ttl", Default: "1h", Desc: "Bearer token lifetime"},

	// SuperAdmin bootstrap
	{Name: "superadmin_login", Default: "", Desc: "Login ID of the super_admin user (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Password to set for the super_admin user"},

	// Authorization
	{Name: "unknown_required_role", Default: "error", Desc: "Routes requiring a role outside the hierarchy: 'error' (answer 500) or 'allow'"},

	// Proxy
	{Name: "trust_proxy", Default: "false", Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a proxy that sets them)"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document lookups"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for listings"},
	{Name: "timeout_long", Default: "60s", Desc: "Timeout for report runs"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// BRANCHHUB_* environment variables and flags, merged with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BRANCHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	policy, err := rbac.ParseUnknownRequiredPolicy(appValues.String("unknown_required_role"))
	if err != nil {
		return nil, AppConfig{}, err
	}

	trustProxy, err := strconv.ParseBool(appValues.String("trust_proxy"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("trust_proxy: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", time.Hour),

		SuperAdminLogin:    appValues.String("superadmin_login"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		UnknownRequiredRole: policy,
		TrustProxy:          trustProxy,

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 60*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// BranchHub checks the MongoDB URI format before attempting to connect and
// refuses to run in prod without a session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must not be empty")
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required in prod")
	}
	if appCfg.SessionMaxAge <= 0 {
		return fmt.Errorf("session_max_age must be positive, got %s", appCfg.SessionMaxAge)
	}

	if appCfg.TokenSecret != "" {
		if len(appCfg.TokenSecret) < apitoken.MinSecretLen {
			return fmt.Errorf("token_secret must be at least %d characters", apitoken.MinSecretLen)
		}
		if appCfg.TokenTTL <= 0 {
			return fmt.Errorf("token_ttl must be positive, got %s", appCfg.TokenTTL)
		}
	}

	if appCfg.SuperAdminPassword != "" && appCfg.SuperAdminLogin == "" {
		return fmt.Errorf("superadmin_password is set but superadmin_login is empty")
	}

	return nil
}
