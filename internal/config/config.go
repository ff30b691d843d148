package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	YouTube    YouTube    `mapstructure:"youtube"`
	Classifier Classifier `mapstructure:"classifier"`
	Providers  Providers  `mapstructure:"providers"`
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Output     Output     `mapstructure:"output"`
	Cache      Cache      `mapstructure:"cache"`
	Server     Server     `mapstructure:"server"`
	PostHog    PostHog    `mapstructure:"posthog"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	ConfigFile string `mapstructure:"config_file"`
}

// YouTube holds YouTube Data API configuration
type YouTube struct {
	APIKey  string `mapstructure:"api_key"`
	Timeout string `mapstructure:"timeout"`
}

// Classifier holds settings shared by every classification call
type Classifier struct {
	Provider          string  `mapstructure:"provider"`
	Model             string  `mapstructure:"model"`
	Temperature       float32 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	Timeout           string  `mapstructure:"timeout"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxRetries        int     `mapstructure:"max_retries"`
	StrictLabels      bool    `mapstructure:"strict_labels"`
}

// Providers holds per-backend credentials
type Providers struct {
	Gemini    ProviderConfig `mapstructure:"gemini"`
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Groq      ProviderConfig `mapstructure:"groq"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds one LLM backend's configuration
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// Pipeline holds batch processing configuration
type Pipeline struct {
	MaxComments       int    `mapstructure:"max_comments"`
	Order             string `mapstructure:"order"`
	Concurrency       int    `mapstructure:"concurrency"`
	Sequential        bool   `mapstructure:"sequential"`
	SkipPTTranslation bool   `mapstructure:"skip_pt_translation"`
	Report            bool   `mapstructure:"report"`
	Thumbnails        bool   `mapstructure:"thumbnails"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Cache holds enrichment cache configuration
type Cache struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	TTL       string `mapstructure:"ttl"`
}

// Server holds report browser configuration
type Server struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// PostHog holds product analytics configuration
type PostHog struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Host    string `mapstructure:"host"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".murmur")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.SetEnvPrefix("MURMUR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.App.ConfigFile = viper.ConfigFileUsed()

	if err := postProcessConfig(&config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	globalConfig = &config
	return globalConfig, nil
}

// Get returns the loaded configuration. It panics if Load has not succeeded.
func Get() *Config {
	if globalConfig == nil {
		if _, err := Load(""); err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)

	viper.SetDefault("youtube.timeout", "30s")

	viper.SetDefault("classifier.provider", "gemini")
	viper.SetDefault("classifier.temperature", 0.1)
	viper.SetDefault("classifier.max_tokens", 1024)
	viper.SetDefault("classifier.timeout", "60s")
	viper.SetDefault("classifier.requests_per_second", 2.0)
	viper.SetDefault("classifier.burst", 2)
	viper.SetDefault("classifier.max_retries", 3)
	viper.SetDefault("classifier.strict_labels", true)

	viper.SetDefault("providers.gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("providers.openai.model", "gpt-4.1-mini")
	viper.SetDefault("providers.groq.model", "llama-3.1-8b-instant")
	viper.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("providers.anthropic.model", "claude-haiku-4-5")

	viper.SetDefault("pipeline.max_comments", 30)
	viper.SetDefault("pipeline.order", "relevance")
	viper.SetDefault("pipeline.concurrency", 4)
	viper.SetDefault("pipeline.sequential", false)
	viper.SetDefault("pipeline.skip_pt_translation", true)
	viper.SetDefault("pipeline.report", true)
	viper.SetDefault("pipeline.thumbnails", true)

	viper.SetDefault("output.directory", "youtube_comments")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.directory", ".murmur-cache")
	viper.SetDefault("cache.ttl", "720h")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("posthog.enabled", false)
	viper.SetDefault("posthog.host", "https://app.posthog.com")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("youtube.api_key", []string{
		"YOUTUBE_API_KEY",
		"YT_API_KEY",
		"GOOGLE_API_KEY",
	})

	bindEnvKeys("providers.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("providers.openai.api_key", []string{
		"OPENAI_API_KEY",
	})

	bindEnvKeys("providers.groq.api_key", []string{
		"GROQ_API_KEY",
	})

	bindEnvKeys("providers.anthropic.api_key", []string{
		"ANTHROPIC_API_KEY",
		"CLAUDE_API_KEY",
	})

	bindEnvKeys("posthog.api_key", []string{
		"POSTHOG_API_KEY",
	})

	bindEnvKeys("posthog.host", []string{
		"POSTHOG_HOST",
	})

	bindEnvKeys("classifier.provider", []string{
		"LLM_PROVIDER",
	})
}

// bindEnvKeys sets viperKey from the first non-empty variable in envKeys
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig expands paths and validates durations
func postProcessConfig(config *Config) error {
	config.Output.Directory = expandPath(config.Output.Directory)
	config.Cache.Directory = expandPath(config.Cache.Directory)

	config.Classifier.Provider = strings.ToLower(strings.TrimSpace(config.Classifier.Provider))
	config.Logging.Level = strings.ToLower(config.Logging.Level)
	config.Logging.Format = strings.ToLower(config.Logging.Format)

	durations := map[string]string{
		"youtube.timeout":      config.YouTube.Timeout,
		"classifier.timeout":   config.Classifier.Timeout,
		"cache.ttl":            config.Cache.TTL,
		"server.read_timeout":  config.Server.ReadTimeout,
		"server.write_timeout": config.Server.WriteTimeout,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// Validate checks the settings an analyze run needs.
func Validate(config *Config) error {
	var errors []string

	if !isValidAPIKey(config.YouTube.APIKey) {
		errors = append(errors, "YouTube API key is required. Set YOUTUBE_API_KEY environment variable or youtube.api_key in config file.")
	}

	switch config.Classifier.Provider {
	case "gemini":
		if !isValidAPIKey(config.Providers.Gemini.APIKey) {
			errors = append(errors, "Gemini provider requires an API key. Set GEMINI_API_KEY")
		}
	case "openai":
		if !isValidAPIKey(config.Providers.OpenAI.APIKey) {
			errors = append(errors, "OpenAI provider requires an API key. Set OPENAI_API_KEY")
		}
	case "groq":
		if !isValidAPIKey(config.Providers.Groq.APIKey) {
			errors = append(errors, "Groq provider requires an API key. Set GROQ_API_KEY")
		}
	case "anthropic":
		if !isValidAPIKey(config.Providers.Anthropic.APIKey) {
			errors = append(errors, "Anthropic provider requires an API key. Set ANTHROPIC_API_KEY")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown classifier provider: %s. Supported: gemini, openai, groq, anthropic", config.Classifier.Provider))
	}

	if config.Pipeline.MaxComments < 0 {
		errors = append(errors, "pipeline.max_comments cannot be negative")
	}
	if config.Pipeline.Concurrency < 1 {
		errors = append(errors, "pipeline.concurrency must be at least 1")
	}
	if config.Classifier.RequestsPerSecond < 0 {
		errors = append(errors, "classifier.requests_per_second cannot be negative")
	}

	if config.PostHog.Enabled && config.PostHog.APIKey == "" {
		errors = append(errors, "PostHog is enabled but POSTHOG_API_KEY is not set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Convenience getters for commonly used configuration values
func GetApp() App               { return Get().App }
func GetYouTube() YouTube       { return Get().YouTube }
func GetClassifier() Classifier { return Get().Classifier }
func GetProviders() Providers   { return Get().Providers }
func GetPipeline() Pipeline     { return Get().Pipeline }
func GetOutput() Output         { return Get().Output }
func GetCache() Cache           { return Get().Cache }
func GetServer() Server         { return Get().Server }
func GetPostHogConfig() PostHog { return Get().PostHog }
func GetLogging() Logging       { return Get().Logging }

func GetYouTubeAPIKey() string   { return Get().YouTube.APIKey }
func GetOutputDirectory() string { return Get().Output.Directory }
func GetCacheDirectory() string  { return Get().Cache.Directory }
func IsDebugMode() bool          { return Get().App.Debug }

// ProviderFor returns the credentials of the named backend.
func (p Providers) ProviderFor(name string) (ProviderConfig, bool) {
	switch name {
	case "gemini":
		return p.Gemini, true
	case "openai":
		return p.OpenAI, true
	case "groq":
		return p.Groq, true
	case "anthropic":
		return p.Anthropic, true
	default:
		return ProviderConfig{}, false
	}
}

// Duration parses a validated duration string, returning fallback when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-youtube-key", "your-gemini-key", "your-openai-key",
		"YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}
	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}

	return true
}

// Reset clears the loaded configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
