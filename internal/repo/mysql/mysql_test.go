package mysql

import (
	"strings"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

func TestConfig_FormatDSN_FromFields(t *testing.T) {
	cfg := Config{Host: "db", Port: 3306, User: "grafana", Password: "secret", Database: "grafana"}
	dsn, err := cfg.FormatDSN()
	if err != nil {
		t.Fatalf("FormatDSN: %v", err)
	}
	for _, want := range []string{"grafana:secret@tcp(db:3306)/grafana", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestConfig_FormatDSN_OverrideForcesParseTime(t *testing.T) {
	cfg := Config{Host: "ignored", DSN: "u:p@tcp(h:3307)/alerts"}
	dsn, err := cfg.FormatDSN()
	if err != nil {
		t.Fatalf("FormatDSN: %v", err)
	}
	if !strings.Contains(dsn, "tcp(h:3307)/alerts") || !strings.Contains(dsn, "parseTime=true") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}

func TestConfig_FormatDSN_BadOverride(t *testing.T) {
	cfg := Config{DSN: "tcp(missing-slash"}
	if _, err := cfg.FormatDSN(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestConfig_FormatDSN_PinsUTCSession(t *testing.T) {
	for name, cfg := range map[string]Config{
		"fields":   {Host: "db", Port: 3306, User: "u", Password: "p", Database: "grafana"},
		"override": {DSN: "u:p@tcp(h:3307)/alerts?loc=Local"},
	} {
		dsn, err := cfg.FormatDSN()
		if err != nil {
			t.Fatalf("%s: FormatDSN: %v", name, err)
		}
		parsed, err := gomysql.ParseDSN(dsn)
		if err != nil {
			t.Fatalf("%s: reparse %q: %v", name, dsn, err)
		}
		if parsed.Loc != time.UTC {
			t.Fatalf("%s: loc = %v, want UTC", name, parsed.Loc)
		}
		if got := parsed.Params["time_zone"]; got != "'+00:00'" {
			t.Fatalf("%s: time_zone = %q in %q", name, got, dsn)
		}
	}
}
