package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// writeTestConfig is a helper that writes a TOML config file to a temp directory
// and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"GOOGLE_API_KEY", "GOOGLE_CSE_ID", "SERPAPI_API_KEY", "SEARCH_FEED_URL", "TELEGRAM_BOT_TOKEN",
		"AI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY",
		"OPENAI_BASE_URL", "OPENAI_MODEL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	clearEnv(t)
	content := `
[server]
host = "127.0.0.1"
port = 9090

[log]
level = "debug"

[search]
api_key = "g-key"
cse_id = "cx-1"
max_results = 5
query_strategy = "entities"

[ai]
provider = "openrouter"
api_key = "sk-test-key-123"
base_url = "openrouter.ai/api/v1"
model = "openai/gpt-4o-mini"

[telegram]
bot_token = "123:abc"
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:9090")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want %v", cfg.SlogLevel(), slog.LevelDebug)
	}

	// Search config
	if cfg.Search.APIKey != "g-key" || cfg.Search.CSEID != "cx-1" {
		t.Errorf("Search credentials = %q/%q, want %q/%q", cfg.Search.APIKey, cfg.Search.CSEID, "g-key", "cx-1")
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("Search.MaxResults = %d, want %d", cfg.Search.MaxResults, 5)
	}
	if cfg.Search.QueryStrategy != "entities" {
		t.Errorf("Search.QueryStrategy = %q, want %q", cfg.Search.QueryStrategy, "entities")
	}

	// AI config
	if cfg.AI.Provider != "openrouter" {
		t.Errorf("AI.Provider = %q, want %q", cfg.AI.Provider, "openrouter")
	}
	if cfg.AI.APIKey != "sk-test-key-123" {
		t.Errorf("AI.APIKey = %q, want %q", cfg.AI.APIKey, "sk-test-key-123")
	}
	if cfg.AI.BaseURL != "openrouter.ai/api/v1" {
		t.Errorf("AI.BaseURL = %q, want %q", cfg.AI.BaseURL, "openrouter.ai/api/v1")
	}
	if cfg.AI.Model != "openai/gpt-4o-mini" {
		t.Errorf("AI.Model = %q, want %q", cfg.AI.Model, "openai/gpt-4o-mini")
	}

	if cfg.Telegram.BotToken != "123:abc" {
		t.Errorf("Telegram.BotToken = %q, want %q", cfg.Telegram.BotToken, "123:abc")
	}
}

func TestLoad_MissingFile_CreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	// File should have been created.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not created at %q: %v", path, err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want %q", cfg.AI.Provider, "openai")
	}
	if cfg.Search.MaxResults != 8 {
		t.Errorf("Search.MaxResults = %d, want %d", cfg.Search.MaxResults, 8)
	}
	if cfg.Search.QueryStrategy != "text" {
		t.Errorf("Search.QueryStrategy = %q, want %q", cfg.Search.QueryStrategy, "text")
	}

	// Credentials have no defaults.
	for name, v := range map[string]string{
		"Search.APIKey":     cfg.Search.APIKey,
		"Search.CSEID":      cfg.Search.CSEID,
		"AI.APIKey":         cfg.AI.APIKey,
		"Telegram.BotToken": cfg.Telegram.BotToken,
	} {
		if v != "" {
			t.Errorf("%s = %q, want empty", name, v)
		}
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearEnv(t)
	content := `
[server]

[search]

[ai]
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 8080)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default %q", cfg.Log.Level, "info")
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want default %q", cfg.AI.Provider, "openai")
	}
	if cfg.AI.Model != "" || cfg.AI.BaseURL != "" {
		t.Errorf("AI model/base_url = %q/%q, want empty so the provider defaults apply", cfg.AI.Model, cfg.AI.BaseURL)
	}
	if cfg.Search.MaxResults != 8 {
		t.Errorf("Search.MaxResults = %d, want default %d", cfg.Search.MaxResults, 8)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	content := `
[search]
api_key = "from-config"
cse_id = "from-config"

[ai]
provider = "openai"
api_key = "from-config"
base_url = "from-config"
model = "from-config"

[telegram]
bot_token = "from-config"
`
	path := writeTestConfig(t, content)
	t.Setenv("GOOGLE_API_KEY", "env-google")
	t.Setenv("GOOGLE_CSE_ID", "env-cx")
	t.Setenv("SERPAPI_API_KEY", "env-serp")
	t.Setenv("SEARCH_FEED_URL", "https://news.example/rss?q={query}")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1")
	t.Setenv("OPENAI_MODEL", "env-model")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"Search.APIKey", cfg.Search.APIKey, "env-google"},
		{"Search.CSEID", cfg.Search.CSEID, "env-cx"},
		{"Search.SerpAPIKey", cfg.Search.SerpAPIKey, "env-serp"},
		{"Search.FeedURL", cfg.Search.FeedURL, "https://news.example/rss?q={query}"},
		{"Telegram.BotToken", cfg.Telegram.BotToken, "env-token"},
		{"AI.APIKey", cfg.AI.APIKey, "env-openai"},
		{"AI.BaseURL", cfg.AI.BaseURL, "https://openrouter.ai/api/v1"},
		{"AI.Model", cfg.AI.Model, "env-model"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestLoad_EnvVar_AIAPIKeyPriority(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     string
	}{
		{
			name:     "openrouter key as fallback",
			provider: "openai",
			env:      map[string]string{"OPENROUTER_API_KEY": "env-openrouter"},
			want:     "env-openrouter",
		},
		{
			name:     "openai key wins over openrouter",
			provider: "openai",
			env:      map[string]string{"OPENAI_API_KEY": "env-openai", "OPENROUTER_API_KEY": "env-openrouter"},
			want:     "env-openai",
		},
		{
			name:     "anthropic key for anthropic provider",
			provider: "anthropic",
			env:      map[string]string{"ANTHROPIC_API_KEY": "env-anthropic", "OPENAI_API_KEY": "env-openai"},
			want:     "env-anthropic",
		},
		{
			name:     "anthropic key ignored for openai provider",
			provider: "openai",
			env:      map[string]string{"ANTHROPIC_API_KEY": "env-anthropic"},
			want:     "from-config",
		},
		{
			name:     "generic key takes precedence",
			provider: "anthropic",
			env:      map[string]string{"ANTHROPIC_API_KEY": "env-anthropic", "AI_API_KEY": "env-generic"},
			want:     "env-generic",
		},
		{
			name:     "blank env keeps config",
			provider: "openai",
			env:      map[string]string{"OPENAI_API_KEY": "   "},
			want:     "from-config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			content := `
[ai]
provider = "` + tt.provider + `"
api_key = "from-config"
`
			path := writeTestConfig(t, content)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load(%q) unexpected error: %v", path, err)
			}
			if cfg.AI.APIKey != tt.want {
				t.Errorf("AI.APIKey = %q, want %q", cfg.AI.APIKey, tt.want)
			}
		})
	}
}

func TestLoad_OpenRouterKeySelectsProvider(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		env          map[string]string
		wantProvider string
	}{
		{
			name:         "openrouter key alone",
			content:      "[ai]\nprovider = \"openai\"\n",
			env:          map[string]string{"OPENROUTER_API_KEY": "or-key"},
			wantProvider: "openrouter",
		},
		{
			name:         "openai key present",
			content:      "[ai]\nprovider = \"openai\"\n",
			env:          map[string]string{"OPENAI_API_KEY": "oa-key", "OPENROUTER_API_KEY": "or-key"},
			wantProvider: "openai",
		},
		{
			name:         "explicit base url",
			content:      "[ai]\nprovider = \"openai\"\nbase_url = \"https://gw.example/v1\"\n",
			env:          map[string]string{"OPENROUTER_API_KEY": "or-key"},
			wantProvider: "openai",
		},
		{
			name:         "generic key overrides",
			content:      "[ai]\nprovider = \"openai\"\n",
			env:          map[string]string{"OPENROUTER_API_KEY": "or-key", "AI_API_KEY": "generic"},
			wantProvider: "openai",
		},
		{
			name:         "anthropic untouched",
			content:      "[ai]\nprovider = \"anthropic\"\n",
			env:          map[string]string{"OPENROUTER_API_KEY": "or-key"},
			wantProvider: "anthropic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeTestConfig(t, tt.content)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load(%q) unexpected error: %v", path, err)
			}
			if cfg.AI.Provider != tt.wantProvider {
				t.Errorf("AI.Provider = %q, want %q", cfg.AI.Provider, tt.wantProvider)
			}
		})
	}
}

func TestLoad_OpenAIEnvIgnoredForAnthropic(t *testing.T) {
	clearEnv(t)
	content := `
[ai]
provider = "anthropic"
model = "claude-haiku-4-5"
`
	path := writeTestConfig(t, content)
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_BASE_URL", "https://api.openai.com/v1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}
	if cfg.AI.Model != "claude-haiku-4-5" || cfg.AI.BaseURL != "" {
		t.Errorf("AI model/base_url = %q/%q, want OpenAI overrides ignored", cfg.AI.Model, cfg.AI.BaseURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown provider", content: "[ai]\nprovider = \"gemini\""},
		{name: "provider typo", content: "[ai]\nprovider = \"open ai\""},
		{name: "unknown strategy", content: "[search]\nquery_strategy = \"keywords\""},
		{name: "unknown log level", content: "[log]\nlevel = \"verbose\""},
		{name: "port zero", content: "[server]\nport = 0"},
		{name: "port negative", content: "[server]\nport = -1"},
		{name: "port too high", content: "[server]\nport = 70000"},
		{name: "max results zero", content: "[search]\nmax_results = 0"},
		{name: "max results above API cap", content: "[search]\nmax_results = 11"},
		{name: "feed url without scheme", content: "[search]\nfeed_url = \"news.example/rss\""},
		{name: "malformed toml", content: "[search\nmax_results = 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeTestConfig(t, tt.content)

			if _, err := Load(path); err == nil {
				t.Fatalf("Load(%q) expected error for %s, got nil", path, tt.name)
			}
		})
	}
}

func TestLoad_EmptyCredentials_NoError(t *testing.T) {
	clearEnv(t)
	content := `
[search]
api_key = ""

[ai]
api_key = ""
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v (empty credentials should warn, not fail)", path, err)
	}
	if cfg.AI.APIKey != "" || cfg.Search.APIKey != "" {
		t.Errorf("credentials = %q/%q, want empty", cfg.AI.APIKey, cfg.Search.APIKey)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{name: "nothing configured", cfg: Config{}, want: 3},
		{
			name: "fully configured",
			cfg: Config{
				Search:   SearchConfig{APIKey: "g", CSEID: "cx"},
				AI:       AIConfig{APIKey: "k"},
				Telegram: TelegramConfig{BotToken: "t"},
			},
			want: 0,
		},
		{
			name: "serpapi counts as search",
			cfg: Config{
				Search:   SearchConfig{SerpAPIKey: "s"},
				AI:       AIConfig{APIKey: "k"},
				Telegram: TelegramConfig{BotToken: "t"},
			},
			want: 0,
		},
		{
			name: "feed counts as search",
			cfg: Config{
				Search:   SearchConfig{FeedURL: "https://news.example/rss?q={query}"},
				Telegram: TelegramConfig{BotToken: "t"},
			},
			want: 1,
		},
		{
			name: "google key without engine id",
			cfg: Config{
				Search:   SearchConfig{APIKey: "g"},
				AI:       AIConfig{APIKey: "k"},
				Telegram: TelegramConfig{BotToken: "t"},
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Warnings(); len(got) != tt.want {
				t.Errorf("Warnings() = %q, want %d entries", got, tt.want)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: LogConfig{Level: tt.level}}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel() for %q = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-shell")
	t.Cleanup(func() { os.Unsetenv("GOOGLE_CSE_ID_DOTENV_TEST") })

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "GOOGLE_CSE_ID_DOTENV_TEST=from-file\nTELEGRAM_BOT_TOKEN=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GOOGLE_CSE_ID_DOTENV_TEST"); got != "from-file" {
		t.Errorf("GOOGLE_CSE_ID_DOTENV_TEST = %q, want %q", got, "from-file")
	}
	if got := os.Getenv("TELEGRAM_BOT_TOKEN"); got != "from-shell" {
		t.Errorf("TELEGRAM_BOT_TOKEN = %q, want the shell value to win", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv on a missing file: %v", err)
	}
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("LoadDotEnv with no path: %v", err)
	}
}
