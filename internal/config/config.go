package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string        // API bind address, e.g. ":3003"
	LogDir          string        // logs directory
	LogLevel        string        // debug|info|warn|error
	MaxBodyBytes    int64         // request body cap for POST /alerts
	WebhookRPM      int           // per-client requests/minute on POST /alerts; 0 disables
	WebhookBurst    int           // burst for the webhook limiter
	AllowedOrigins  []string      // CORS origins; empty allows all
	ShutdownTimeout time.Duration // graceful shutdown budget

	DB DBConfig
}

type DBConfig struct {
	Driver   string // mysql | postgres | memory
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	PoolSize int    // max concurrent connections
	URL      string // full DSN; overrides host/port/credentials when set
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func FromEnv() Config {
	driver := strings.ToLower(envStr("DB_DRIVER", DriverMySQL))
	return Config{
		Addr:            envStr("API_ADDR", ":3003"),
		LogDir:          envStr("LOG_DIR", "logs"),
		LogLevel:        strings.ToLower(envStr("LOG_LEVEL", "info")),
		MaxBodyBytes:    int64(envInt("MAX_BODY_BYTES", 10<<20, 1)),
		WebhookRPM:      envInt("WEBHOOK_RPM", 0, 0),
		WebhookBurst:    envInt("WEBHOOK_BURST", 20, 1),
		AllowedOrigins:  splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		ShutdownTimeout: time.Duration(envInt("SHUTDOWN_TIMEOUT_MS", 10000, 0)) * time.Millisecond,
		DB: DBConfig{
			Driver:   driver,
			Host:     envStr("DB_HOST", "mysql"),
			Port:     envInt("DB_PORT", defaultPort(driver), 1),
			User:     envStr("DB_USER", "grafana"),
			Password: envStr("DB_PASSWORD", "grafana"),
			Name:     envStr("DB_NAME", "grafana"),
			PoolSize: envInt("DB_POOL_SIZE", 10, 1),
			URL:      os.Getenv("DATABASE_URL"),
		},
	}
}

func defaultPort(driver string) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when the variable is unset, unparsable or below min.
func envInt(key string, def, min int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
