package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hostpilot/internal/logger"

	"github.com/joho/godotenv"
)

func init() {
	envFiles := []string{
		".env",
	}

	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Error loading %s: %v", envFile, err)
			}
		}
	}
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	return value
}

func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)

	if err != nil {
		logger.Warn("Invalid integer for %s: %v, using default %d", key, err, defaultValue)
		return defaultValue
	}

	return parsed
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)

	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)

	if err != nil {
		logger.Warn("Invalid duration for %s: %v, using default %s", key, err, defaultValue)
		return defaultValue
	}

	return parsed
}

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn("Could not determine home directory: %v", err)
		return ""
	}
	return homeDir
}

func getDefaultDatabasePath(fallback string, profile string) string {
	homeDir := getHomeDir()
	if homeDir == "" {
		return fallback
	}
	return filepath.Join(homeDir, ".hostpilot", profile, "hostpilot.db")
}

type Configuration struct {
	DatabasePath string

	HostpilotProfile string

	// Master key for credential encryption at rest. Empty means the
	// credential store refuses to store or resolve anything.
	MasterKey string

	// Per-host connection pool ceiling (clamped to 1..4).
	PoolSizePerHost int

	ConnectTimeout  time.Duration
	ExecuteTimeout  time.Duration
	CheckoutTimeout time.Duration

	// Idle connections older than IdleProbeAfter are probed before reuse;
	// older than IdleExpiry they are closed outright.
	IdleProbeAfter time.Duration
	IdleExpiry     time.Duration

	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration

	ShutdownGrace time.Duration

	SSHPort uint
	SSHUser string
}

var HostpilotProfile = GetEnv("HOSTPILOT_PROFILE", "default")
var DatabasePath = GetEnv("DATABASE_PATH", getDefaultDatabasePath("/var/lib/hostpilot/hostpilot.db", HostpilotProfile))

var Config = &Configuration{
	DatabasePath: DatabasePath,

	HostpilotProfile: HostpilotProfile,

	MasterKey: GetEnv("HOSTPILOT_MASTER_KEY", ""),

	PoolSizePerHost: GetEnvInt("HOSTPILOT_POOL_SIZE", 2),

	ConnectTimeout:  GetEnvDuration("HOSTPILOT_CONNECT_TIMEOUT", 10*time.Second),
	ExecuteTimeout:  GetEnvDuration("HOSTPILOT_EXECUTE_TIMEOUT", 60*time.Second),
	CheckoutTimeout: GetEnvDuration("HOSTPILOT_CHECKOUT_TIMEOUT", 30*time.Second),

	IdleProbeAfter: GetEnvDuration("HOSTPILOT_IDLE_PROBE_AFTER", 90*time.Second),
	IdleExpiry:     GetEnvDuration("HOSTPILOT_IDLE_EXPIRY", 10*time.Minute),

	MaxRetries:  GetEnvInt("HOSTPILOT_MAX_RETRIES", 2),
	BackoffBase: GetEnvDuration("HOSTPILOT_BACKOFF_BASE", 500*time.Millisecond),
	BackoffCap:  GetEnvDuration("HOSTPILOT_BACKOFF_CAP", 5*time.Second),

	ShutdownGrace: GetEnvDuration("HOSTPILOT_SHUTDOWN_GRACE", 15*time.Second),

	SSHPort: 22,
	SSHUser: GetEnv("HOSTPILOT_SSH_USER", "root"),
}
