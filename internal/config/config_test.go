package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
	"PRACTICUM_ENDPOINT", "POLL_INTERVAL", "REQUEST_TIMEOUT",
	"TELEGRAM_API_ENDPOINT", "NOTIFY_ALL",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "LOG_STDOUT", "OPS_ADDR",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Endpoint != "https://practicum.yandex.ru/api/user_api/homework_statuses/" {
		t.Errorf("Endpoint = %q, want default", cfg.Endpoint)
	}
	if cfg.PollInterval != 600*time.Second {
		t.Errorf("PollInterval = %v, want 600s", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.TelegramAPIEndpoint != "https://api.telegram.org/bot%s/%s" {
		t.Errorf("TelegramAPIEndpoint = %q, want default", cfg.TelegramAPIEndpoint)
	}
	if cfg.NotifyAll {
		t.Error("NotifyAll = true, want false")
	}
	if cfg.LogFile != "homework-bot.log" || !cfg.LogStdout {
		t.Errorf("LogFile = %q, LogStdout = %v, want defaults", cfg.LogFile, cfg.LogStdout)
	}
	if cfg.OpsAddr != "" {
		t.Errorf("OpsAddr = %q, want empty", cfg.OpsAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"PRACTICUM_TOKEN":    "p-token",
		"TELEGRAM_TOKEN":     "t-token",
		"TELEGRAM_CHAT_ID":   "12345",
		"PRACTICUM_ENDPOINT": "http://localhost:8000/statuses/",
		"POLL_INTERVAL":      "30s",
		"NOTIFY_ALL":         "true",
		"LOG_LEVEL":          "debug",
		"LOG_STDOUT":         "false",
		"OPS_ADDR":           ":9100",
	})

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PracticumToken != "p-token" || cfg.TelegramToken != "t-token" || cfg.TelegramChatID != "12345" {
		t.Errorf("credentials = %q/%q/%q", cfg.PracticumToken, cfg.TelegramToken, cfg.TelegramChatID)
	}
	if cfg.Endpoint != "http://localhost:8000/statuses/" {
		t.Errorf("Endpoint = %q, want custom", cfg.Endpoint)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if !cfg.NotifyAll {
		t.Error("NotifyAll = false, want true")
	}
	if cfg.LogLevel != "debug" || cfg.LogStdout {
		t.Errorf("LogLevel = %q, LogStdout = %v", cfg.LogLevel, cfg.LogStdout)
	}
	if cfg.OpsAddr != ":9100" {
		t.Errorf("OpsAddr = %q, want :9100", cfg.OpsAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_InvalidDuration_FallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_INTERVAL", "not-a-duration")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollInterval != 600*time.Second {
		t.Errorf("PollInterval = %v, want fallback 600s", cfg.PollInterval)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "POLL_INTERVAL") {
		t.Errorf("Warnings = %q, want one about POLL_INTERVAL", cfg.Warnings)
	}
}

func TestLoad_InvalidBool_FallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIFY_ALL", "sometimes")

	cfg, err := Load(Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NotifyAll {
		t.Error("NotifyAll = true, want fallback false")
	}
	if len(cfg.Warnings) != 1 {
		t.Errorf("Warnings = %q, want one", cfg.Warnings)
	}
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_INTERVAL", "0s")

	if _, err := Load(Options{}); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

func TestLoad_BadTelegramEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_API_ENDPOINT", "https://api.telegram.org/")

	if _, err := Load(Options{}); err == nil {
		t.Fatal("expected error for endpoint without format verbs")
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bot.toml", `
endpoint = "http://file/statuses/"
poll_interval = "2m"
notify_all = true
log_format = "json"
ops_addr = ":9200"
`)

	cfg, err := Load(Options{File: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != "http://file/statuses/" {
		t.Errorf("Endpoint = %q, want from file", cfg.Endpoint)
	}
	if cfg.PollInterval != 2*time.Minute {
		t.Errorf("PollInterval = %v, want 2m", cfg.PollInterval)
	}
	if !cfg.NotifyAll || cfg.LogFormat != "json" || cfg.OpsAddr != ":9200" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default kept", cfg.LogLevel)
	}
}

func TestLoad_EnvOverridesTOML(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_INTERVAL", "45s")
	path := writeFile(t, "bot.toml", `poll_interval = "2m"`)

	cfg, err := Load(Options{File: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want env value 45s", cfg.PollInterval)
	}
}

func TestLoad_TOMLCannotSetCredentials(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bot.toml", `PracticumToken = "from-file"`)

	cfg, err := Load(Options{File: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PracticumToken != "" {
		t.Errorf("PracticumToken = %q, want empty", cfg.PracticumToken)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "bot.toml", `poll_interval = [`)

	if _, err := Load(Options{File: path}); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "from-process")
	path := writeFile(t, ".env", "PRACTICUM_TOKEN=from-dotenv\nTELEGRAM_TOKEN=tg-dotenv\nTELEGRAM_CHAT_ID=from-dotenv\n")

	cfg, err := Load(Options{EnvFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PracticumToken != "from-dotenv" {
		t.Errorf("PracticumToken = %q, want from-dotenv", cfg.PracticumToken)
	}
	if cfg.TelegramChatID != "from-process" {
		t.Errorf("TelegramChatID = %q, want process value to win", cfg.TelegramChatID)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), ".env")}); err != nil {
		t.Fatalf("Load() error = %v, want missing .env ignored", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := Default()
	cfg.TelegramToken = "t"

	err := cfg.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Validate() error = %v, want ErrMissingCredentials", err)
	}
	if !strings.Contains(err.Error(), "PRACTICUM_TOKEN") || !strings.Contains(err.Error(), "TELEGRAM_CHAT_ID") {
		t.Errorf("error = %q, want both missing names", err)
	}
	if strings.Contains(err.Error(), "TELEGRAM_TOKEN,") || strings.HasSuffix(err.Error(), "TELEGRAM_TOKEN") {
		t.Errorf("error = %q, should not list TELEGRAM_TOKEN", err)
	}
}
