// Package config loads service settings: .env first, then an optional YAML
// file, then environment variables, which always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"call-insights-go/internal/extractor"
	"call-insights-go/internal/store"
	"call-insights-go/internal/transcription"
	"call-insights-go/internal/webhook"
)

type Server struct {
	Port           string        `yaml:"port"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	JobTimeout     time.Duration `yaml:"job_timeout"`
}

type Transcription struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	Mock         bool          `yaml:"mock"`
}

type LLM struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
	Mock    bool          `yaml:"mock"`
}

type Store struct {
	Driver     string        `yaml:"driver"`
	Path       string        `yaml:"path"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type Webhook struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Server        Server        `yaml:"server"`
	Transcription Transcription `yaml:"transcription"`
	LLM           LLM           `yaml:"llm"`
	Store         Store         `yaml:"store"`
	Webhook       Webhook       `yaml:"webhook"`
}

// DefaultMaxUploadBytes is 4.5 MiB, the request ceiling of the hosting platform
// the API was first deployed on.
const DefaultMaxUploadBytes = 4718592

func Default() Config {
	return Config{
		Server: Server{Port: "8080", MaxUploadBytes: DefaultMaxUploadBytes, JobTimeout: 5 * time.Minute},
		Transcription: Transcription{
			BaseURL:      transcription.DefaultBaseURL,
			PollInterval: transcription.DefaultPollInterval,
			MaxAttempts:  transcription.DefaultMaxAttempts,
		},
		LLM: LLM{BaseURL: extractor.DefaultBaseURL, Model: extractor.DefaultModel, Timeout: extractor.DefaultTimeout},
		Store: Store{
			Driver:     "memory",
			Path:       filepath.Join("data", "results.db"),
			TTL:        store.DefaultTTL,
			MaxEntries: store.DefaultMaxEntries,
		},
		Webhook: Webhook{Timeout: webhook.DefaultTimeout},
	}
}

// Load reads .env, the YAML file and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load() // .env is optional
	return load(os.LookupEnv)
}

type lookupFunc func(string) (string, bool)

func load(lookup lookupFunc) (Config, error) {
	cfg := Default()

	path, explicit := lookup("CONFIG_FILE")
	if !explicit || path == "" {
		env, _ := lookup("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		path = filepath.Join("config", env, "config.yaml")
	}
	if err := readYAML(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	o := overrider{lookup: lookup}
	o.setString("PORT", &cfg.Server.Port)
	o.setInt64("MAX_UPLOAD_BYTES", &cfg.Server.MaxUploadBytes)
	o.setDuration("JOB_TIMEOUT", &cfg.Server.JobTimeout)

	o.setString("ASSEMBLYAI_API_KEY", &cfg.Transcription.APIKey)
	o.setString("ASSEMBLYAI_BASE_URL", &cfg.Transcription.BaseURL)
	o.setDuration("TRANSCRIBE_POLL_INTERVAL", &cfg.Transcription.PollInterval)
	o.setInt("TRANSCRIBE_MAX_ATTEMPTS", &cfg.Transcription.MaxAttempts)
	o.setBool("USE_MOCK_TRANSCRIBE", &cfg.Transcription.Mock)

	o.setString("LLM_API_KEY", &cfg.LLM.APIKey)
	o.setString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	o.setString("LLM_MODEL", &cfg.LLM.Model)
	o.setDuration("LLM_TIMEOUT", &cfg.LLM.Timeout)
	o.setBool("USE_MOCK_LLM", &cfg.LLM.Mock)

	o.setString("STORE_DRIVER", &cfg.Store.Driver)
	o.setString("STORE_PATH", &cfg.Store.Path)
	o.setDuration("STORE_TTL", &cfg.Store.TTL)
	o.setInt("STORE_MAX_ENTRIES", &cfg.Store.MaxEntries)

	o.setString("WEBHOOK_URL", &cfg.Webhook.URL)
	o.setDuration("WEBHOOK_TIMEOUT", &cfg.Webhook.Timeout)

	if err := errors.Join(o.errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func readYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Server.JobTimeout <= 0 {
		errs = append(errs, errors.New("JOB_TIMEOUT must be positive"))
	}
	if c.Transcription.PollInterval <= 0 || c.Transcription.MaxAttempts <= 0 {
		errs = append(errs, errors.New("transcription polling needs a positive interval and attempt count"))
	}
	if !c.Transcription.Mock && c.Transcription.APIKey == "" {
		errs = append(errs, errors.New("ASSEMBLYAI_API_KEY is required unless USE_MOCK_TRANSCRIBE=true"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be positive"))
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("STORE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not memory or sqlite", c.Store.Driver))
	}
	if c.Store.TTL <= 0 || c.Store.MaxEntries <= 0 {
		errs = append(errs, errors.New("store TTL and max entries must be positive"))
	}
	if u := c.Webhook.URL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		errs = append(errs, fmt.Errorf("WEBHOOK_URL %q is not an http(s) url", u))
	}
	return errors.Join(errs...)
}

type overrider struct {
	lookup lookupFunc
	errs   []error
}

func (o *overrider) get(key string) (string, bool) {
	v, ok := o.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (o *overrider) setString(key string, dst *string) {
	if v, ok := o.get(key); ok {
		*dst = v
	}
}

func (o *overrider) setInt(key string, dst *int) {
	if v, ok := o.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			o.errs = append(o.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (o *overrider) setInt64(key string, dst *int64) {
	if v, ok := o.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			o.errs = append(o.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (o *overrider) setBool(key string, dst *bool) {
	if v, ok := o.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			o.errs = append(o.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

// setDuration accepts Go durations ("4.5s") or plain seconds ("30").
func (o *overrider) setDuration(key string, dst *time.Duration) {
	v, ok := o.get(key)
	if !ok {
		return
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		o.errs = append(o.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}
