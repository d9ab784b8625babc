package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/andres10976/homework-bot/internal/metrics"
	"github.com/andres10976/homework-bot/internal/service/poller"
)

func TestCheckCommand_PrintsMessages(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "OAuth p-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_date":1700000000,"homeworks":[{"homework_name":"hw05","status":"approved"},{"homework_name":"hw04","status":"unknown"}]}`))
	}))
	defer api.Close()

	t.Setenv("PRACTICUM_TOKEN", "p-token")
	t.Setenv("PRACTICUM_ENDPOINT", api.URL+"/statuses/")
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "bot.log"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"check", "--env-file", ""})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "submissions: 2") {
		t.Errorf("output = %q, want submission count", got)
	}
	if !strings.Contains(got, `Changed review status for "hw05".`) {
		t.Errorf("output = %q, want formatted approved message", got)
	}
	if !strings.Contains(got, "invalid submission status") {
		t.Errorf("output = %q, want unknown status reported", got)
	}
}

func TestCheckCommand_RemoteFailure(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer api.Close()

	t.Setenv("PRACTICUM_TOKEN", "p-token")
	t.Setenv("PRACTICUM_ENDPOINT", api.URL)
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "bot.log"))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"check", "--env-file", ""})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if !strings.HasPrefix(err.Error(), "remote API failure") {
		t.Errorf("error = %q, want remote API failure", err)
	}
}

func TestOpsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := poller.New(nil, nil, poller.Options{Recorder: metrics.New(reg)})
	srv := httptest.NewServer(opsRouter(p, reg, zap.NewNop()))
	defer srv.Close()

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusServiceUnavailable},
		{"/api/v1/status", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("GET %s missing X-Request-ID", tt.path)
		}
	}
}
