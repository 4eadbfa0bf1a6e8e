package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
	// Scheduler timezones must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"NewsDesk/internal/domain"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWSDESK_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	cronSecretEnv     = "CRON_SECRET"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	geminiKeyEnv      = "GEMINI_API_KEY"
	marketNewsKeyEnv  = "MARKET_NEWS_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	httpAddrEnv       = "HTTP_ADDR"
)

// AI providers.
const (
	ProviderNone    = "none"
	ProviderChatGPT = "chatgpt"
	ProviderClaude  = "claude"
	ProviderGemini  = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	HTTP          HTTPConfig         `yaml:"http"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	AI            AIConfig           `yaml:"ai"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Claude        ClaudeConfig       `yaml:"claude"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sites         []SiteConfig       `yaml:"sites" validate:"dive"`
}

// DatabaseConfig selects the SQL dialect and connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `yaml:"dsn" validate:"required"`
}

// HTTPConfig configures the trigger endpoints.
type HTTPConfig struct {
	Addr       string `yaml:"addr" validate:"required"`
	CronSecret string `yaml:"cronSecret"`
	// TrustedHeader names a header set by the hosting platform's scheduler.
	TrustedHeader string `yaml:"trustedHeader"`
}

// SchedulerConfig defines when the general pipeline should run in-process.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// AIConfig selects the rewriting provider and its call budget.
type AIConfig struct {
	Provider          string        `yaml:"provider" validate:"oneof=none chatgpt claude gemini"`
	RequestsPerMinute int           `yaml:"requestsPerMinute" validate:"min=0"`
	Burst             int           `yaml:"burst" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible chat API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// ClaudeConfig configures the Anthropic rewriter.
type ClaudeConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseUrl"`
	MaxTokens int    `yaml:"maxTokens" validate:"min=0"`
}

// GeminiConfig configures the Gemini rewriter.
type GeminiConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// PipelineConfig tunes the batch run.
type PipelineConfig struct {
	Window          time.Duration     `yaml:"window" validate:"min=0"`
	PaywallMarkers  []string          `yaml:"paywallMarkers"`
	MaxTags         int               `yaml:"maxTags" validate:"min=0"`
	Zones           []domain.ZoneSpec `yaml:"zones" validate:"dive"`
	ArticleBasePath string            `yaml:"articleBasePath"`
	CategoryZone    string            `yaml:"categoryZone"`

	// CategoryZoneCapacity bounds the feed zone seeded on every category page.
	CategoryZoneCapacity int `yaml:"categoryZoneCapacity" validate:"min=0"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	// APIURL overrides the Bot API endpoint format ("https://host/bot%s/%s").
	APIURL string `yaml:"apiUrl"`
	// SiteURL prefixes relative article links in messages.
	SiteURL string `yaml:"siteUrl"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig describes a single site with its scanner strategy.
type SiteConfig struct {
	Name       string            `yaml:"name" validate:"required"`
	Scanner    string            `yaml:"scanner" validate:"required"`
	Categories []CategoryConfig  `yaml:"categories" validate:"dive"`
	Options    map[string]string `yaml:"options"`
}

// CategoryConfig holds the concrete endpoint to fetch for one category.
type CategoryConfig struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url"`
}

// CategoryPages lists every category slug an article can be placed under:
// the configured categories plus the business categories of dual-classified sites.
func (c Config) CategoryPages() []string {
	pages := c.CategoryNames()
	for _, site := range c.Sites {
		if site.Scanner != "marketnews" {
			continue
		}
		business := site.Options["businessCategory"]
		if business == "" {
			business = "business"
		}
		if !slices.Contains(pages, business) {
			pages = append(pages, business)
		}
	}
	return pages
}

// CategoryNames lists the distinct configured category names in site order.
func (c Config) CategoryNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, site := range c.Sites {
		for _, cat := range site.Categories {
			if !seen[cat.Name] {
				seen[cat.Name] = true
				names = append(names, cat.Name)
			}
		}
	}
	return names
}

// Load reads YAML configuration (if present), applies environment overrides
// and validates the result.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(cronSecretEnv); v != "" {
		c.HTTP.CronSecret = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
	if v := os.Getenv(anthropicKeyEnv); v != "" {
		c.Claude.APIKey = v
	}
	if v := os.Getenv(geminiKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(marketNewsKeyEnv); v != "" {
		for i := range c.Sites {
			if c.Sites[i].Scanner != "marketnews" {
				continue
			}
			if c.Sites[i].Options == nil {
				c.Sites[i].Options = map[string]string{}
			}
			c.Sites[i].Options["apiKey"] = v
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("config: unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Driver != "" {
		base.Database.Driver = strings.ToLower(override.Database.Driver)
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.CronSecret != "" {
		base.HTTP.CronSecret = override.HTTP.CronSecret
	}
	if override.HTTP.TrustedHeader != "" {
		base.HTTP.TrustedHeader = override.HTTP.TrustedHeader
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.AI.Provider != "" {
		base.AI.Provider = strings.ToLower(override.AI.Provider)
	}
	if override.AI.RequestsPerMinute != 0 {
		base.AI.RequestsPerMinute = override.AI.RequestsPerMinute
	}
	if override.AI.Burst != 0 {
		base.AI.Burst = override.AI.Burst
	}
	if override.AI.Timeout != 0 {
		base.AI.Timeout = override.AI.Timeout
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}

	if override.Claude.APIKey != "" {
		base.Claude.APIKey = override.Claude.APIKey
	}
	if override.Claude.Model != "" {
		base.Claude.Model = override.Claude.Model
	}
	if override.Claude.BaseURL != "" {
		base.Claude.BaseURL = override.Claude.BaseURL
	}
	if override.Claude.MaxTokens != 0 {
		base.Claude.MaxTokens = override.Claude.MaxTokens
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}

	if override.Pipeline.Window != 0 {
		base.Pipeline.Window = override.Pipeline.Window
	}
	if len(override.Pipeline.PaywallMarkers) > 0 {
		base.Pipeline.PaywallMarkers = override.Pipeline.PaywallMarkers
	}
	if override.Pipeline.MaxTags != 0 {
		base.Pipeline.MaxTags = override.Pipeline.MaxTags
	}
	if len(override.Pipeline.Zones) > 0 {
		base.Pipeline.Zones = override.Pipeline.Zones
	}
	if override.Pipeline.ArticleBasePath != "" {
		base.Pipeline.ArticleBasePath = override.Pipeline.ArticleBasePath
	}
	if override.Pipeline.CategoryZone != "" {
		base.Pipeline.CategoryZone = override.Pipeline.CategoryZone
	}
	if override.Pipeline.CategoryZoneCapacity != 0 {
		base.Pipeline.CategoryZoneCapacity = override.Pipeline.CategoryZoneCapacity
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIURL != "" {
		base.Notifications.Telegram.APIURL = override.Notifications.Telegram.APIURL
	}
	if override.Notifications.Telegram.SiteURL != "" {
		base.Notifications.Telegram.SiteURL = override.Notifications.Telegram.SiteURL
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:newsdesk.db?_pragma=busy_timeout(5000)"},
		HTTP:     HTTPConfig{Addr: ":8080", TrustedHeader: "X-Vercel-Cron"},
		Scheduler: SchedulerConfig{
			CronExpression: "0 */2 * * *",
			Timezone:       defaultTimezone,
			location:       tz,
		},
		AI: AIConfig{
			Provider:          ProviderChatGPT,
			RequestsPerMinute: 30,
			Burst:             1,
			Timeout:           45 * time.Second,
		},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		Claude: ClaudeConfig{Model: "claude-sonnet-4-20250514", MaxTokens: 4096},
		Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		Pipeline: PipelineConfig{
			Window:          24 * time.Hour,
			PaywallMarkers:  []string{"ONLY AVAILABLE IN PAID PLANS"},
			MaxTags:         5,
			Zones:           domain.DefaultHomepageZones(),
			ArticleBasePath: "/news/",
			CategoryZone:    "category-feed",

			CategoryZoneCapacity: 20,
		},
		Logging: LoggingConfig{Level: "info"},
		Sites: []SiteConfig{
			{
				Name:    "market-news",
				Scanner: "marketnews",
				Categories: []CategoryConfig{
					{Name: "markets", URL: "https://eodhd.com/api/news?t=general"},
				},
				Options: map[string]string{"businessCategory": "business"},
			},
			{
				Name:    "world-wire",
				Scanner: "rss",
				Categories: []CategoryConfig{
					{Name: "world", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
					{Name: "technology", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml"},
				},
			},
		},
	}
}
