package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 90 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// MaxRequestBodySize caps JSON request bodies.
const MaxRequestBodySize = 64 << 10

// Background job intervals
const (
	CleanupJobInterval = 5 * time.Minute
	CleanupJobTimeout  = 30 * time.Second
)

// Session lifetimes
const (
	SessionTTL     = 7 * 24 * time.Hour
	ChatHistoryTTL = 7 * 24 * time.Hour
)

// Rate limits. Windows are sliding.
const (
	SignupLimitPerHour     = 10
	LoginLimitPerMinute    = 5
	VerifyCodeAttempts     = 5
	VerifyCodeWindow       = 15 * time.Minute
	ResendLimit            = 3
	ResendWindow           = 15 * time.Minute
	GenerateLimitPerMinute = 20
	ChatLimitPerMinute     = 30
)

// Safety warm-up budget at startup
const SafetyWarmTimeout = 60 * time.Second
