package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hamed0406/alertapi/internal/httpapi"
	"github.com/hamed0406/alertapi/internal/ingest"
	"github.com/hamed0406/alertapi/internal/repo/memory"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_SendListHealth(t *testing.T) {
	store := memory.New()
	log := zap.NewNop()
	srv := httpapi.NewServer(log, store, ingest.NewIngester(store, log, nil), nil, httpapi.Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	out, err := runCLI(t, "--api", ts.URL, "send", "--name", "DiskFull", "--status", "resolved", "-l", "rule_id=r9")
	if err != nil {
		t.Fatalf("send: %v (%s)", err, out)
	}
	if !strings.Contains(out, "processed=1 inserted=1") || !strings.Contains(out, "DiskFull (resolved)") {
		t.Fatalf("unexpected send output: %q", out)
	}

	out, err = runCLI(t, "--api", ts.URL, "list", "-n", "5")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "DiskFull") || !strings.Contains(out, "sent by alertctl") {
		t.Fatalf("unexpected list output: %q", out)
	}

	out, err = runCLI(t, "--api", ts.URL, "health")
	if err != nil || !strings.Contains(out, "database=connected") {
		t.Fatalf("health: %v %q", err, out)
	}

	store.SetPingErr(context.DeadlineExceeded)
	if _, err := runCLI(t, "--api", ts.URL, "health"); err == nil {
		t.Fatalf("expected health to fail when database is disconnected")
	}
}

func TestCLI_SendRejectedBatch(t *testing.T) {
	store := memory.New()
	log := zap.NewNop()
	srv := httpapi.NewServer(log, store, ingest.NewIngester(store, log, nil), nil, httpapi.Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	root := newRootCommand()
	root.SetIn(strings.NewReader(`{"alerts":[]}`))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--api", ts.URL, "send", "-f", "-"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("want 400 error, got %v", err)
	}
}
