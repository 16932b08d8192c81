// Package config loads the service configuration from environment variables.
// Unset values take their defaults and the result is validated on startup so
// that a misconfigured service fails before it accepts uploads.
package config

import (
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Validation ValidationConfig
	Upload     UploadConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds non-upload requests.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// RateLimit is the number of requests per minute allowed per client IP.
	// Zero disables rate limiting.
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`
}

// DatabaseConfig holds PostgreSQL settings. An empty URL runs the service
// without persistence; reports are then only returned to the caller.
type DatabaseConfig struct {
	URL      string `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns int    `env:"DB_MAX_CONNS" default:"10"`

	// AutoMigrate creates the report tables on startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`

	// Retention deletes reports older than this; 0 keeps them forever.
	Retention         time.Duration `env:"REPORT_RETENTION" default:"0"`
	RetentionInterval time.Duration `env:"REPORT_RETENTION_INTERVAL" default:"24h"`
	RetentionBatch    int           `env:"REPORT_RETENTION_BATCH" default:"500"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ValidationConfig holds the defaults applied to every validation run.
// Requests may lower the level but not raise MaxErrors.
type ValidationConfig struct {
	// Level is the error list threshold: error, warn or info.
	Level string `env:"MZTAB_ERROR_LEVEL" default:"error"`

	// MaxErrors stops a run after this many findings; 0 disables the cap.
	MaxErrors int `env:"MZTAB_MAX_ERRORS" default:"1000"`

	// KeepRows stores parsed rows with the report.
	KeepRows bool `env:"MZTAB_KEEP_ROWS" default:"false"`
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	MaxFileSize   int64         `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"UPLOAD_TIMEOUT" default:"5m"`
}

// SecurityConfig holds authentication and proxy settings.
type SecurityConfig struct {
	// RequireAPIKey protects the /api routes with X-API-Key.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
