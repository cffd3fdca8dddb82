package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hamed0406/alertapi/internal/config"
)

func TestCheck_PassesWithDefaults(t *testing.T) {
	t.Setenv("DB_POOL_SIZE", "")
	var out, errOut bytes.Buffer
	if code := check(config.FromEnv(), &out, &errOut); code != 0 {
		t.Fatalf("want exit 0, got %d; stderr=%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "preflight passed") {
		t.Fatalf("missing success line: %s", out.String())
	}
}

func TestCheck_FailsOnUnknownDriver(t *testing.T) {
	cfg := config.FromEnv()
	cfg.DB.Driver = "oracle"
	var out, errOut bytes.Buffer
	if code := check(cfg, &out, &errOut); code != 1 {
		t.Fatalf("want exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "oracle") {
		t.Fatalf("expected driver in error output: %s", errOut.String())
	}
}
