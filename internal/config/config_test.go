package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaultsWithMocks(t *testing.T) {
	t.Parallel()
	cfg, err := load(env(map[string]string{"USE_MOCK_TRANSCRIBE": "true", "CONFIG_ENV": "nowhere"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Server.MaxUploadBytes != 4718592 {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Transcription.PollInterval != 4500*time.Millisecond || cfg.Transcription.MaxAttempts != 20 {
		t.Fatalf("transcription=%+v", cfg.Transcription)
	}
	if cfg.LLM.Timeout != 8*time.Second || cfg.Store.Driver != "memory" {
		t.Fatalf("llm=%+v store=%+v", cfg.LLM, cfg.Store)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: "9000"
  job_timeout: 90s
transcription:
  api_key: from-yaml
  poll_interval: 2s
llm:
  model: yaml-model
store:
  driver: sqlite
  path: /tmp/r.db
  ttl: 1h
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := load(env(map[string]string{
		"CONFIG_FILE":       path,
		"LLM_MODEL":         "env-model",
		"LLM_TIMEOUT":       "3",
		"STORE_MAX_ENTRIES": "5",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Server.JobTimeout != 90*time.Second {
		t.Fatalf("server=%+v", cfg.Server)
	}
	if cfg.Transcription.APIKey != "from-yaml" || cfg.Transcription.PollInterval != 2*time.Second {
		t.Fatalf("transcription=%+v", cfg.Transcription)
	}
	if cfg.LLM.Model != "env-model" || cfg.LLM.Timeout != 3*time.Second {
		t.Fatalf("llm=%+v", cfg.LLM)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.TTL != time.Hour || cfg.Store.MaxEntries != 5 {
		t.Fatalf("store=%+v", cfg.Store)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()
	_, err := load(env(map[string]string{"CONFIG_FILE": filepath.Join(t.TempDir(), "nope.yaml")}))
	if err == nil {
		t.Fatalf("expected error for a missing CONFIG_FILE")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Parallel()
	_, err := load(env(map[string]string{
		"CONFIG_ENV":          "nowhere",
		"USE_MOCK_TRANSCRIBE": "maybe",
		"STORE_MAX_ENTRIES":   "lots",
	}))
	if err == nil || !strings.Contains(err.Error(), "USE_MOCK_TRANSCRIBE") || !strings.Contains(err.Error(), "STORE_MAX_ENTRIES") {
		t.Fatalf("err=%v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Transcription.Mock = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	bad := Default()
	bad.Store.Driver = "redis"
	bad.Webhook.URL = "ftp://x"
	err := bad.Validate()
	for _, want := range []string{"ASSEMBLYAI_API_KEY", "STORE_DRIVER", "WEBHOOK_URL"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("err=%v missing %s", err, want)
		}
	}
}
