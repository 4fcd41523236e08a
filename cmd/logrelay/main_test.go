package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/xraph/logrelay/payload"
)

type webhook struct {
	mu       sync.Mutex
	messages []payload.Message
}

func (wh *webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg payload.Message
	_ = json.NewDecoder(r.Body).Decode(&msg)
	wh.mu.Lock()
	wh.messages = append(wh.messages, msg)
	wh.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (wh *webhook) received() []payload.Message {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	return append([]payload.Message(nil), wh.messages...)
}

func TestRunForwardsStdin(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	input := strings.Join([]string{
		`{"level":"INFO","msg":"routine"}`,
		`{"level":"ERROR","msg":"disk full","logger":"storage","free":0}`,
		`{"level":"WARN","msg":"slow"}`,
	}, "\n")

	var stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"--app", "svc", "--webhook-url", srv.URL, "--min-level", "warn", "--log-format", "text"},
		strings.NewReader(input), &stderr)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}

	got := wh.received()
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0].Embeds[0].Description != "disk full" || got[1].Embeds[0].Description != "slow" {
		t.Fatalf("unexpected order or content: %q %q", got[0].Embeds[0].Description, got[1].Embeds[0].Description)
	}
	if got[0].Embeds[0].Fields[0].Value != "`storage::`" {
		t.Fatalf("target span: got %q", got[0].Embeds[0].Fields[0].Value)
	}
	if got[1].Embeds[0].Fields[0].Value != "`svc::`" {
		t.Fatalf("default target: got %q", got[1].Embeds[0].Fields[0].Value)
	}

	summary := stderr.String()
	for _, want := range []string{"forwarder stopped", "accepted=2", "filtered=1", "delivered=2"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q: %s", want, summary)
		}
	}
}

func TestRunReadsFilesWithConfig(t *testing.T) {
	wh := &webhook{}
	srv := httptest.NewServer(wh)
	defer srv.Close()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "logrelay.toml")
	cfg := "app_name = \"svc\"\nwebhook_url = \"" + srv.URL + "\"\n\n[log]\nformat = \"json\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "app.jsonl")
	if err := os.WriteFile(logPath, []byte(`{"level":"ERROR","msg":"from file"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"--config", cfgPath, logPath}, strings.NewReader(""), &stderr); code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
	got := wh.received()
	if len(got) != 1 || got[0].Embeds[0].Description != "from file" {
		t.Fatalf("unexpected deliveries %+v", got)
	}
}

func TestRunConfigErrors(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "")

	tests := map[string][]string{
		"missing app":    {"--webhook-url", "https://example.com/hook"},
		"missing url":    {"--app", "svc"},
		"bad level":      {"--app", "svc", "--webhook-url", "https://example.com/hook", "--min-level", "loud"},
		"bad log format": {"--log-format", "xml"},
		"missing config": {"--config", filepath.Join(t.TempDir(), "nope.yaml")},
		"unknown flag":   {"--bogus"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(context.Background(), args, strings.NewReader(""), &stderr); code != 1 {
				t.Fatalf("expected exit code 1, got %d", code)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stderr bytes.Buffer
	if code := run(context.Background(), []string{"--help"}, strings.NewReader(""), &stderr); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("help not printed: %q", stderr.String())
	}
}
