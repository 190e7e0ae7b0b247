package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	Search   SearchConfig   `toml:"search"`
	AI       AIConfig       `toml:"ai"`
	Telegram TelegramConfig `toml:"telegram"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// SearchConfig holds web search settings. Google is used when both the key
// and the engine ID are set, then SerpApi when its key is set; otherwise
// FeedURL, when set, is queried as an RSS search feed.
type SearchConfig struct {
	APIKey        string `toml:"api_key"`
	CSEID         string `toml:"cse_id"`
	SerpAPIKey    string `toml:"serpapi_key"`
	MaxResults    int    `toml:"max_results"`
	QueryStrategy string `toml:"query_strategy"`
	FeedURL       string `toml:"feed_url"`
}

// AIConfig holds ranking provider settings.
type AIConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// TelegramConfig holds bot settings.
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
}

const defaultConfigContent = `[server]
host = ""                         # Empty listens on all interfaces
port = 8080

[log]
level = "info"                    # "debug", "info", "warn" or "error"

[search]
api_key = ""                      # Google API key (or set GOOGLE_API_KEY env var)
cse_id = ""                       # Custom Search engine ID (or set GOOGLE_CSE_ID env var)
serpapi_key = ""                  # SerpApi key, used without Google (or set SERPAPI_API_KEY env var)
max_results = 8                   # Candidates per search, at most 10
query_strategy = "text"           # "text" or "entities"
feed_url = ""                     # RSS search URL with a {query} placeholder, used without Google

[ai]
provider = "openai"               # "openai", "openrouter" or "anthropic"
api_key = ""                      # Your API key (or set OPENAI_API_KEY / AI_API_KEY env var)
base_url = ""                     # Empty uses the provider's public endpoint
model = ""                        # Empty uses the provider's default model

[telegram]
bot_token = ""                    # Bot token (or set TELEGRAM_BOT_TOKEN env var)
`

const (
	defaultPort          = 8080
	defaultMaxResults    = 8
	maxMaxResults        = 10
	defaultQueryStrategy = "text"
	defaultProvider      = "openai"
	defaultLogLevel      = "info"
)

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// "port = 0" is an error, not a request for the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadDotEnv copies KEY=value pairs from a dotenv file into the process
// environment so they take part in the overrides Load applies. Variables
// already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	slog.Debug("loaded env file", "path", path)
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SlogLevel maps log.level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file
// and would otherwise be silently replaced by a default.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("search", "max_results") {
		if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > maxMaxResults {
			return fmt.Errorf("invalid search.max_results %d: must be between 1 and %d", cfg.Search.MaxResults, maxMaxResults)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields. Credentials
// have no defaults: a missing key disables the stage that needs it.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = defaultMaxResults
	}
	if cfg.Search.QueryStrategy == "" {
		cfg.Search.QueryStrategy = defaultQueryStrategy
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaultProvider
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. ANTHROPIC_API_KEY (when provider is "anthropic")
//  3. OPENAI_API_KEY, then OPENROUTER_API_KEY (otherwise)
//
// OPENAI_BASE_URL and OPENAI_MODEL only apply to OpenAI-compatible providers.
// When the key comes from OPENROUTER_API_KEY and no base URL is set, the
// "openai" provider becomes "openrouter" so the OpenRouter defaults apply.
func applyEnvOverrides(cfg *Config) {
	setFromEnv(&cfg.Search.APIKey, "GOOGLE_API_KEY")
	setFromEnv(&cfg.Search.CSEID, "GOOGLE_CSE_ID")
	setFromEnv(&cfg.Search.SerpAPIKey, "SERPAPI_API_KEY")
	setFromEnv(&cfg.Search.FeedURL, "SEARCH_FEED_URL")
	setFromEnv(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")

	openRouterKey := false
	switch cfg.AI.Provider {
	case "anthropic":
		setFromEnv(&cfg.AI.APIKey, "ANTHROPIC_API_KEY")
	default:
		if !setFromEnv(&cfg.AI.APIKey, "OPENAI_API_KEY") {
			openRouterKey = setFromEnv(&cfg.AI.APIKey, "OPENROUTER_API_KEY")
		}
		setFromEnv(&cfg.AI.BaseURL, "OPENAI_BASE_URL")
		setFromEnv(&cfg.AI.Model, "OPENAI_MODEL")
	}

	if setFromEnv(&cfg.AI.APIKey, "AI_API_KEY") {
		openRouterKey = false
	}

	// An OpenRouter key is useless against the OpenAI endpoint.
	if openRouterKey && cfg.AI.Provider == "openai" && cfg.AI.BaseURL == "" {
		cfg.AI.Provider = "openrouter"
	}
}

// setFromEnv overwrites *dst with the named variable when it is non-blank
// and reports whether it did.
func setFromEnv(dst *string, name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	*dst = v
	return true
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.AI.Provider {
	case "openai", "openrouter", "anthropic":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"openai\", \"openrouter\" or \"anthropic\"", cfg.AI.Provider)
	}

	switch cfg.Search.QueryStrategy {
	case "text", "entities":
		// valid
	default:
		return fmt.Errorf("invalid search.query_strategy %q: must be \"text\" or \"entities\"", cfg.Search.QueryStrategy)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log.level %q: must be \"debug\", \"info\", \"warn\" or \"error\"", cfg.Log.Level)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Search.MaxResults < 1 || cfg.Search.MaxResults > maxMaxResults {
		return fmt.Errorf("invalid search.max_results %d: must be between 1 and %d", cfg.Search.MaxResults, maxMaxResults)
	}

	if cfg.Search.FeedURL != "" && !strings.HasPrefix(cfg.Search.FeedURL, "http://") && !strings.HasPrefix(cfg.Search.FeedURL, "https://") {
		return fmt.Errorf("invalid search.feed_url %q: must be an http(s) URL", cfg.Search.FeedURL)
	}

	return nil
}

// Warnings lists the stages that missing credentials switch off. Load does
// not log them so the caller can first install its configured logger.
func (c *Config) Warnings() []string {
	var out []string
	if (c.Search.APIKey == "" || c.Search.CSEID == "") && c.Search.SerpAPIKey == "" && c.Search.FeedURL == "" {
		out = append(out, "search is not configured: set GOOGLE_API_KEY and GOOGLE_CSE_ID, SERPAPI_API_KEY, or search.feed_url")
	}
	if c.AI.APIKey == "" {
		out = append(out, "ai.api_key is empty: results will be returned in search order without ranking")
	}
	if c.Telegram.BotToken == "" {
		out = append(out, "telegram.bot_token is empty: the webhook will reject updates")
	}
	return out
}
