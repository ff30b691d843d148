package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets the variables Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"YOUTUBE_API_KEY", "YT_API_KEY", "GOOGLE_API_KEY",
		"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY",
		"OPENAI_API_KEY", "GROQ_API_KEY", "ANTHROPIC_API_KEY", "CLAUDE_API_KEY",
		"POSTHOG_API_KEY", "POSTHOG_HOST", "LLM_PROVIDER",
	} {
		t.Setenv(key, "")
	}
}

func loadFrom(t *testing.T, yaml string) *Config {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "murmur.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := loadFrom(t, "")

	if cfg.Pipeline.MaxComments != 30 {
		t.Errorf("Expected 30 max comments, got %d", cfg.Pipeline.MaxComments)
	}
	if cfg.Pipeline.Order != "relevance" || cfg.Pipeline.Concurrency != 4 || !cfg.Pipeline.SkipPTTranslation {
		t.Errorf("Unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Classifier.Provider != "gemini" || !cfg.Classifier.StrictLabels || cfg.Classifier.MaxRetries != 3 {
		t.Errorf("Unexpected classifier defaults: %+v", cfg.Classifier)
	}
	if cfg.Providers.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Unexpected groq base URL %q", cfg.Providers.Groq.BaseURL)
	}
	if cfg.Output.Directory != "youtube_comments" {
		t.Errorf("Unexpected output directory %q", cfg.Output.Directory)
	}
	if cfg.Logging.Format != "text" || cfg.Logging.Level != "info" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if got := Duration(cfg.YouTube.Timeout, 0); got != 30*time.Second {
		t.Errorf("Expected a 30s YouTube request timeout, got %v", got)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	cfg := loadFrom(t, `
classifier:
  provider: Groq
  strict_labels: false
pipeline:
  max_comments: 100
  order: time
logging:
  format: JSON
`)

	if cfg.Classifier.Provider != "groq" || cfg.Classifier.StrictLabels {
		t.Errorf("File values not applied: %+v", cfg.Classifier)
	}
	if cfg.Pipeline.MaxComments != 100 || cfg.Pipeline.Order != "time" {
		t.Errorf("File values not applied: %+v", cfg.Pipeline)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format should be lowercased, got %q", cfg.Logging.Format)
	}
}

func TestLoad_EnvironmentAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("YT_API_KEY", "yt-key")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("CLAUDE_API_KEY", "claude-key")

	cfg := loadFrom(t, "")

	if cfg.YouTube.APIKey != "yt-key" {
		t.Errorf("Expected YouTube key from alias, got %q", cfg.YouTube.APIKey)
	}
	if cfg.Providers.Groq.APIKey != "groq-key" || cfg.Providers.Anthropic.APIKey != "claude-key" {
		t.Errorf("Provider keys not bound: %+v", cfg.Providers)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	Reset()
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("classifier:\n  timeout: soon\n"), 0644)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "classifier.timeout") {
		t.Errorf("Expected duration error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			YouTube:    YouTube{APIKey: "yt"},
			Classifier: Classifier{Provider: "openai"},
			Providers:  Providers{OpenAI: ProviderConfig{APIKey: "sk"}},
			Pipeline:   Pipeline{MaxComments: 30, Concurrency: 2},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing youtube key", func(c *Config) { c.YouTube.APIKey = "" }, "YouTube API key"},
		{"placeholder youtube key", func(c *Config) { c.YouTube.APIKey = "YOUR_API_KEY" }, "YouTube API key"},
		{"missing provider key", func(c *Config) { c.Providers.OpenAI.APIKey = "" }, "OPENAI_API_KEY"},
		{"unknown provider", func(c *Config) { c.Classifier.Provider = "bard" }, "Unknown classifier provider"},
		{"bad concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }, "concurrency"},
		{"posthog without key", func(c *Config) { c.PostHog.Enabled = true }, "POSTHOG_API_KEY"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestProviderFor(t *testing.T) {
	p := Providers{Anthropic: ProviderConfig{Model: "claude"}}
	if got, ok := p.ProviderFor("anthropic"); !ok || got.Model != "claude" {
		t.Errorf("Unexpected provider %+v %v", got, ok)
	}
	if _, ok := p.ProviderFor("nope"); ok {
		t.Error("Unknown provider should not be found")
	}
}

func TestDuration(t *testing.T) {
	if Duration("", time.Second) != time.Second {
		t.Error("Empty value should use fallback")
	}
	if Duration("90s", time.Second) != 90*time.Second {
		t.Error("Expected parsed duration")
	}
	if Duration("bogus", time.Minute) != time.Minute {
		t.Error("Invalid value should use fallback")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/murmur"); got != filepath.Join(home, "murmur") {
		t.Errorf("Expected home expansion, got %s", got)
	}
	t.Setenv("MURMUR_TEST_DIR", "/tmp/x")
	if got := expandPath("$MURMUR_TEST_DIR/out"); got != "/tmp/x/out" {
		t.Errorf("Expected env expansion, got %s", got)
	}
}
