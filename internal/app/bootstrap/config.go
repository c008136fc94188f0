// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTSecret is the shortest signing secret accepted in production.
const minJWTSecret = 32

// appConfigKeys defines the configuration keys for HedeflyNet.
// They are read from config files (mongo_uri), environment variables
// (HEDEFLYNET_MONGO_URI), and flags (--mongo_uri).
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "hedeflynet", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "hedeflynet-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 24h, 168h)"},

	{Name: "jwt_secret", Default: "dev-only-jwt-secret-change-me-0123456789", Desc: "HS256 secret for API bearer tokens"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Bearer token lifetime"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for the response cache (blank uses in-process memory)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "cache_ttl", Default: "60s", Desc: "TTL for cached stats and dashboards"},

	{Name: "sendgrid_api_key", Default: "", Desc: "SendGrid API key (blank logs emails instead)"},
	{Name: "mail_from", Default: "noreply@hedeflynet.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "HedeflyNet", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public origin of this API (OAuth callbacks)"},
	{Name: "client_url", Default: "http://localhost:3000", Desc: "Browser client origin (login links, OAuth redirects)"},

	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "cors_origins", Default: "http://localhost:3000", Desc: "Comma-separated browser origins allowed by CORS"},

	{Name: "audit_log", Default: auditlog.All, Desc: "Audit event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "admin_email", Default: "", Desc: "Email of the bootstrap admin (created on startup when missing)"},
	{Name: "admin_password", Default: "", Desc: "Password for the bootstrap admin"},

	{Name: "subscription_sweep_interval", Default: "1h", Desc: "How often expired subscriptions are swept (0 disables)"},
	{Name: "notification_retention", Default: "2160h", Desc: "Parent notifications older than this are deleted (0 keeps them)"},
}

// LoadConfig loads WAFFLE core config and HedeflyNet's app config.
//
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "HEDEFLYNET", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		CacheTTL:      appValues.Duration("cache_ttl", time.Minute),

		SendGridAPIKey: appValues.String("sendgrid_api_key"),
		MailFrom:       appValues.String("mail_from"),
		MailFromName:   appValues.String("mail_from_name"),

		BaseURL:   appValues.String("base_url"),
		ClientURL: appValues.String("client_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		AuditLog: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		AdminEmail:    strings.TrimSpace(appValues.String("admin_email")),
		AdminPassword: appValues.String("admin_password"),

		SubscriptionSweepInterval: appValues.Duration("subscription_sweep_interval", time.Hour),
		NotificationRetention:     appValues.Duration("notification_retention", 90*24*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would fail later or run
// insecurely in production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if coreCfg.Env == "prod" && len(appCfg.JWTSecret) < minJWTSecret {
		return fmt.Errorf("jwt_secret must be at least %d characters in production", minJWTSecret)
	}
	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	switch appCfg.AuditLog {
	case auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off:
	default:
		return fmt.Errorf("audit_log must be one of all|db|log|off, got %q", appCfg.AuditLog)
	}
	if appCfg.AdminEmail != "" && appCfg.AdminPassword == "" {
		return fmt.Errorf("admin_email requires admin_password")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
