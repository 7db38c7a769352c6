package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Exchanges ExchangesConfig
	Cleanup   CleanupConfig
	Formance  FormanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	TrustedProxies  []string
	TemplatesDebug  bool
}

// AuthConfig holds token and login settings
type AuthConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	CookieSecure       bool
	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration
}

// ExchangesConfig holds the exchange catalog location and outbound client limits
type ExchangesConfig struct {
	CatalogFile     string
	RequestTimeout  time.Duration
	MaxConnsPerHost int
}

// CleanupConfig holds invitation cleanup settings
type CleanupConfig struct {
	Schedule      string
	Retention     time.Duration
	InvitationTTL time.Duration
}

// FormanceConfig holds the settings for the optional withdrawal journal.
// The journal is disabled when StackURL is empty.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}
