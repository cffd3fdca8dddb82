// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hamed0406/alertapi/internal/config"
)

func main() {
	os.Exit(check(config.FromEnv(), os.Stdout, os.Stderr))
}

// check prints one line per finding and returns the process exit code.
func check(cfg config.Config, stdout, stderr io.Writer) int {
	failed := false
	fail := func(msg string) { fmt.Fprintln(stderr, "✖", msg); failed = true }
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	switch cfg.DB.Driver {
	case config.DriverMySQL, config.DriverPostgres:
		ok("DB_DRIVER=" + cfg.DB.Driver)
	case config.DriverMemory:
		warn("DB_DRIVER=memory; alerts are kept in memory and lost on restart.")
	default:
		fail("DB_DRIVER " + cfg.DB.Driver + " is not one of mysql, postgres, memory.")
	}

	if cfg.DB.Driver != config.DriverMemory {
		if cfg.DB.URL != "" {
			ok("DATABASE_URL present (overrides DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME)")
		} else {
			ok(fmt.Sprintf("database %s@%s:%d/%s", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name))
			if cfg.DB.Password == "grafana" {
				warn("DB_PASSWORD is the built-in default; set it explicitly outside local dev.")
			}
		}
		ok(fmt.Sprintf("DB_POOL_SIZE=%d", cfg.DB.PoolSize))
	}

	if v := strings.TrimSpace(os.Getenv("DB_POOL_SIZE")); v != "" && fmt.Sprint(cfg.DB.PoolSize) != v {
		warn("DB_POOL_SIZE=" + v + " is not a positive integer; using the default.")
	}

	ok("API_ADDR=" + cfg.Addr)
	if cfg.WebhookRPM > 0 {
		ok(fmt.Sprintf("webhook rate limit %d/min burst %d", cfg.WebhookRPM, cfg.WebhookBurst))
	} else {
		warn("WEBHOOK_RPM unset; POST /alerts is not rate limited.")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if failed {
		return 1
	}
	ok("preflight passed")
	return 0
}
