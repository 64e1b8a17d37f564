// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: branchhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens
	TokenSecret string        // HMAC secret; blank disables bearer tokens
	TokenTTL    time.Duration // Lifetime of issued tokens

	// SuperAdmin bootstrap
	SuperAdminLogin    string // Login ID promoted/created as super_admin on startup
	SuperAdminPassword string // Password set for that user when non-empty

	// Routes registered with a role outside the hierarchy
	UnknownRequiredRole rbac.UnknownRequiredPolicy

	// Honour proxy client-IP headers
	TrustProxy bool

	// Request timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
