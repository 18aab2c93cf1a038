// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, log level, CORS and body limits; everything club-specific
// lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: clubhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Base URL used to build the OAuth callback
	BaseURL string // e.g., "https://clubhub.example.edu" or "http://localhost:3000"

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Chat
	ChatAppendTimeout time.Duration // deadline for a single message append
	ChatHistoryLimit  int           // newest N messages per snapshot; 0 keeps all
	ChatPostLimit     int           // posts allowed per user per window
	ChatPostWindow    time.Duration
	ChatPoll          time.Duration // snapshot re-read interval without change streams; 0 disables

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth   string
	AuditLogAdmin  string
	AuditLogClub   string
	AuditRetention time.Duration // 0 keeps events forever

	// Promoted to admin (or created) on startup
	AdminEmail string
}
