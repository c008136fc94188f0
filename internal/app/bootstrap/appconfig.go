// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds HedeflyNet's service-specific configuration.
//
// Values come from config files, HEDEFLYNET_* environment variables, or
// command-line flags (see LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, log level, and request limits.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64

	// Browser sessions
	SessionKey    string // signs session cookies (must be strong in production)
	SessionName   string
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Bearer tokens for API clients
	JWTSecret string
	JWTTTL    time.Duration

	// Response cache. Blank RedisAddr selects the in-process cache.
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Email (SendGrid). Blank API key logs emails instead of sending them.
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	// BaseURL is this API's public origin; ClientURL is the browser app.
	BaseURL   string
	ClientURL string

	// Google sign-in; disabled unless both are set.
	GoogleClientID     string
	GoogleClientSecret string

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string

	// AuditLog is all | db | log | off.
	AuditLog string

	// Admin bootstrap: created on startup when missing.
	AdminEmail    string
	AdminPassword string

	// Background workers. A zero interval disables a job.
	SubscriptionSweepInterval time.Duration
	NotificationRetention     time.Duration
}
