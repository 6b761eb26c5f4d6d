package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobalert/internal/model"
)

// EnvConfigPath names the environment variable consulted when no --config flag is given.
const EnvConfigPath = "JOBALERT_CONFIG"

const defaultConfigFile = "config.yaml"

// Config is the root configuration for a jobalert run.
type Config struct {
	Location      string // passed to the source, e.g. "London, UK"
	ResultsWanted int    // max postings per term per run
	HoursOld      int    // max posting age; 0 disables the limit
	Concurrency   int    // terms processed in parallel
	QuietFirstRun bool   // seed a new term's seen set without notifying
	Schedule      string // cron spec used by the daemon
	Source        SourceConfig
	Store         StoreConfig
	Notification  NotificationConfig
	Filters       FilterConfig
	Terms         map[model.SearchTerm]TermConfig
}

// SourceConfig selects the listing source and how it is called.
type SourceConfig struct {
	Type       string        // "linkedin", "adzuna" or "greenhouse"
	MinDelay   time.Duration // minimum gap between requests to the source
	Retries    int           // retries on transient failures
	RetryDelay time.Duration // base backoff delay
	Timeout    time.Duration // per-request HTTP timeout
	Adzuna     AdzunaConfig
	Greenhouse []BoardConfig
}

// AdzunaConfig holds Adzuna API credentials.
type AdzunaConfig struct {
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
	Country string `yaml:"country"`
}

// BoardConfig is one Greenhouse board searched by the greenhouse source.
type BoardConfig struct {
	Token   string `yaml:"token"`
	Company string `yaml:"company"`
}

// StoreConfig selects where seen sets are kept.
type StoreConfig struct {
	Type   string `yaml:"type"`   // "sqlite", "postgres", "redis" or "memory"
	Path   string `yaml:"path"`   // sqlite database file
	URL    string `yaml:"url"`    // postgres or redis connection URL
	Prefix string `yaml:"prefix"` // redis key prefix
}

// NotificationConfig controls which gateway is used and its settings.
type NotificationConfig struct {
	Type       string // "pushover", "slack", "telegram" or "log"
	Priority   int    // pushover priority, -2..1
	Retries    int    // additional attempts per target
	RetryDelay time.Duration
	Pushover   PushoverConfig
	Slack      SlackConfig
	Telegram   TelegramConfig
}

type PushoverConfig struct {
	APIToken string `yaml:"api_token"`
	UserKey  string `yaml:"user_key"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// FilterConfig holds title keyword filters.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
}

// TermConfig is the per-term section of the config.
type TermConfig struct {
	Devices Devices
	Filters FilterConfig
}

// Devices accepts either a single device name or a list of them.
type Devices []string

func (d *Devices) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*d = nil
		if name = strings.TrimSpace(name); name != "" {
			*d = Devices{name}
		}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*d = nil
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				*d = append(*d, n)
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: device must be a string or a list of strings", value.Line)
	}
}

// TermNames returns the configured terms, sorted.
func (c *Config) TermNames() []model.SearchTerm {
	names := make([]model.SearchTerm, 0, len(c.Terms))
	for t := range c.Terms {
		names = append(names, t)
	}
	slices.Sort(names)
	return names
}

// DevicesFor returns the devices configured for term. None means the gateway default.
func (c *Config) DevicesFor(term model.SearchTerm) []string {
	return c.Terms[term].Devices
}

// FiltersFor merges the global filters with the ones configured for term.
func (c *Config) FiltersFor(term model.SearchTerm) FilterConfig {
	t := c.Terms[term].Filters
	return FilterConfig{
		TitleKeywords:        append(slices.Clone(c.Filters.TitleKeywords), t.TitleKeywords...),
		TitleExcludeKeywords: append(slices.Clone(c.Filters.TitleExcludeKeywords), t.TitleExcludeKeywords...),
	}
}

// Query returns the source query shared by every term. Term is left empty.
func (c *Config) Query() model.Query {
	return model.Query{
		Location:    c.Location,
		MaxResults:  c.ResultsWanted,
		MaxAgeHours: c.HoursOld,
	}
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Location      *string                  `yaml:"location"`
	ResultsWanted *int                     `yaml:"results_wanted"`
	HoursOld      *int                     `yaml:"hours_old"`
	Concurrency   int                      `yaml:"concurrency"`
	QuietFirstRun bool                     `yaml:"quiet_first_run"`
	Schedule      string                   `yaml:"schedule"`
	Source        rawSourceConfig          `yaml:"source"`
	Store         StoreConfig              `yaml:"store"`
	Notification  rawNotificationConfig    `yaml:"notification"`
	Filters       FilterConfig             `yaml:"filters"`
	Terms         map[string]rawTermConfig `yaml:"terms"`
}

type rawSourceConfig struct {
	Type       string        `yaml:"type"`
	MinDelay   string        `yaml:"min_delay"`
	Retries    *int          `yaml:"retries"`
	RetryDelay string        `yaml:"retry_delay"`
	Timeout    string        `yaml:"timeout"`
	Adzuna     AdzunaConfig  `yaml:"adzuna"`
	Greenhouse []BoardConfig `yaml:"greenhouse"`
}

type rawNotificationConfig struct {
	Type       string         `yaml:"type"`
	Priority   int            `yaml:"priority"`
	Retries    *int           `yaml:"retries"`
	RetryDelay string         `yaml:"retry_delay"`
	Pushover   PushoverConfig `yaml:"pushover"`
	Slack      SlackConfig    `yaml:"slack"`
	Telegram   TelegramConfig `yaml:"telegram"`
}

type rawTermConfig struct {
	Device               Devices  `yaml:"device"`
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
}

// Resolve picks the config file: the flag value, then $JOBALERT_CONFIG, then
// ./config.yaml if it exists. An empty result means run on defaults.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// Load reads a .env file if present, then parses the YAML config file at path
// with environment variables expanded, applies defaults and validates it.
// An empty path yields the defaults plus environment secrets.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory and from the config file's
// directory. Variables already set in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		if dir := filepath.Dir(configPath); dir != "." {
			candidates = append(candidates, filepath.Join(dir, ".env"))
		}
	}
	for _, f := range candidates {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	cfg := &Config{
		Location:      "London, UK",
		ResultsWanted: 1000,
		HoursOld:      3,
		Concurrency:   raw.Concurrency,
		QuietFirstRun: raw.QuietFirstRun,
		Schedule:      raw.Schedule,
		Store:         raw.Store,
		Filters:       raw.Filters,
		Terms:         make(map[model.SearchTerm]TermConfig),
	}
	if raw.Location != nil {
		cfg.Location = *raw.Location
	}
	if raw.ResultsWanted != nil {
		cfg.ResultsWanted = *raw.ResultsWanted
	}
	if raw.HoursOld != nil {
		cfg.HoursOld = *raw.HoursOld
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 3h"
	}

	var err error
	src := raw.Source
	cfg.Source = SourceConfig{
		Type:       orDefault(src.Type, "linkedin"),
		Retries:    intOrDefault(src.Retries, 3),
		Adzuna:     src.Adzuna,
		Greenhouse: src.Greenhouse,
	}
	if cfg.Source.MinDelay, err = parseDuration("source.min_delay", src.MinDelay, 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Source.RetryDelay, err = parseDuration("source.retry_delay", src.RetryDelay, 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.Source.Timeout, err = parseDuration("source.timeout", src.Timeout, 30*time.Second); err != nil {
		return nil, err
	}

	cfg.Store.Type = orDefault(cfg.Store.Type, "sqlite")
	if cfg.Store.Type == "sqlite" {
		cfg.Store.Path = orDefault(cfg.Store.Path, "jobalert.db")
	}

	n := raw.Notification
	cfg.Notification = NotificationConfig{
		Type:     orDefault(n.Type, "pushover"),
		Priority: n.Priority,
		Retries:  intOrDefault(n.Retries, 3),
		Pushover: n.Pushover,
		Slack:    n.Slack,
		Telegram: n.Telegram,
	}
	if cfg.Notification.RetryDelay, err = parseDuration("notification.retry_delay", n.RetryDelay, 5*time.Second); err != nil {
		return nil, err
	}

	for name, t := range raw.Terms {
		term := model.NormalizeTerm(name)
		if term == "" {
			return nil, fmt.Errorf("terms: empty search term")
		}
		if _, dup := cfg.Terms[term]; dup {
			return nil, fmt.Errorf("terms: %q is configured twice", term)
		}
		cfg.Terms[term] = TermConfig{
			Devices: t.Device,
			Filters: FilterConfig{
				TitleKeywords:        t.TitleKeywords,
				TitleExcludeKeywords: t.TitleExcludeKeywords,
			},
		}
	}

	return cfg, nil
}

// applyEnv fills secrets left blank in the file from the environment.
func applyEnv(cfg *Config) {
	envFallback(&cfg.Notification.Pushover.APIToken, "PUSHOVER_API_TOKEN")
	envFallback(&cfg.Notification.Pushover.UserKey, "PUSHOVER_USER_KEY")
	envFallback(&cfg.Notification.Slack.WebhookURL, "SLACK_WEBHOOK_URL")
	envFallback(&cfg.Notification.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	if cfg.Notification.Telegram.ChatID == 0 {
		if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
			cfg.Notification.Telegram.ChatID = id
		}
	}
	envFallback(&cfg.Source.Adzuna.AppID, "ADZUNA_APP_ID")
	envFallback(&cfg.Source.Adzuna.AppKey, "ADZUNA_APP_KEY")
	switch cfg.Store.Type {
	case "postgres":
		envFallback(&cfg.Store.URL, "DATABASE_URL")
	case "redis":
		envFallback(&cfg.Store.URL, "REDIS_URL")
	}
}

func validate(cfg *Config) error {
	if cfg.ResultsWanted <= 0 {
		return fmt.Errorf("results_wanted must be positive, got %d", cfg.ResultsWanted)
	}
	if cfg.HoursOld < 0 {
		return fmt.Errorf("hours_old must not be negative, got %d", cfg.HoursOld)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	switch cfg.Source.Type {
	case "linkedin":
	case "adzuna":
		if cfg.Source.Adzuna.AppID == "" || cfg.Source.Adzuna.AppKey == "" {
			return fmt.Errorf("source.adzuna.app_id and app_key are required when source.type is \"adzuna\"")
		}
	case "greenhouse":
		if len(cfg.Source.Greenhouse) == 0 {
			return fmt.Errorf("source.greenhouse needs at least one board when source.type is \"greenhouse\"")
		}
		for i, b := range cfg.Source.Greenhouse {
			if b.Token == "" || b.Company == "" {
				return fmt.Errorf("source.greenhouse[%d]: token and company are required", i)
			}
		}
	default:
		return fmt.Errorf("source.type must be linkedin, adzuna or greenhouse, got %q", cfg.Source.Type)
	}
	if cfg.Source.MinDelay < 0 || cfg.Source.RetryDelay < 0 || cfg.Source.Retries < 0 {
		return fmt.Errorf("source retry and delay settings must not be negative")
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive, got %v", cfg.Source.Timeout)
	}

	switch cfg.Store.Type {
	case "sqlite", "memory":
	case "postgres", "redis":
		if cfg.Store.URL == "" {
			return fmt.Errorf("store.url is required when store.type is %q", cfg.Store.Type)
		}
	default:
		return fmt.Errorf("store.type must be sqlite, postgres, redis or memory, got %q", cfg.Store.Type)
	}

	n := cfg.Notification
	switch n.Type {
	case "pushover", "log":
	case "slack":
		if n.Slack.WebhookURL == "" {
			return fmt.Errorf("notification.slack.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(n.Slack.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.slack.webhook_url must start with https://hooks.slack.com/")
		}
	case "telegram":
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == 0 {
			return fmt.Errorf("notification.telegram.bot_token and chat_id are required when type is \"telegram\"")
		}
	default:
		return fmt.Errorf("notification.type must be pushover, slack, telegram or log, got %q", n.Type)
	}
	// Emergency priority (2) needs retry/expire parameters this tool never sends.
	if n.Priority < -2 || n.Priority > 1 {
		return fmt.Errorf("notification.priority must be between -2 and 1, got %d", n.Priority)
	}
	if n.Retries < 0 || n.RetryDelay < 0 {
		return fmt.Errorf("notification retries and retry_delay must not be negative")
	}

	return nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func envFallback(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}
