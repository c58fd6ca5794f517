// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPath = "configs/config.yaml"

type Config struct {
	Site        string `yaml:"site" validate:"required,oneof=linkedin stepstone"`
	SearchURL   string `yaml:"search_url"`
	DryRun      bool   `yaml:"dry_run"`
	MaxSteps    int    `yaml:"max_steps" validate:"gte=1,lte=20"`
	MaxJobs     int    `yaml:"max_jobs" validate:"gte=0"`
	Schedule    string `yaml:"schedule"`
	ProfilePath string `yaml:"profile_path"`
	ResumePath  string `yaml:"resume_path"`

	Browser  BrowserConfig  `yaml:"browser"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Policy   PolicyConfig   `yaml:"policy"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Store    StoreConfig    `yaml:"store"`
	Records  RecordsConfig  `yaml:"records"`
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Filter   FilterConfig   `yaml:"filter"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	CookiesPath    string `yaml:"cookies_path"`
	ScreenshotsDir string `yaml:"screenshots_dir"`
}

type OracleConfig struct {
	Provider  string        `yaml:"provider" validate:"oneof=ollama claude gemini"`
	BaseURL   string        `yaml:"base_url"`
	Endpoint  string        `yaml:"endpoint" validate:"oneof=chat generate"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit" validate:"gte=0"`
}

// PolicyConfig carries the hard-coded answer defaults. A caller may override
// any of them.
type PolicyConfig struct {
	YearsOfExperience  string `yaml:"years_of_experience"`
	StartDateMonths    int    `yaml:"start_date_months" validate:"gte=0"`
	Salutation         string `yaml:"salutation"`
	Availability       string `yaml:"availability"`
	SalaryDefault      string `yaml:"salary_default"`
	CommuteAnswer      string `yaml:"commute_answer"`
	CommuteAnswerDE    string `yaml:"commute_answer_de"`
	NegotiableFallback string `yaml:"negotiable_fallback"`
}

type TimeoutConfig struct {
	DocumentReady time.Duration `yaml:"document_ready"`
	Acknowledge   time.Duration `yaml:"acknowledge"`
	Confirmation  time.Duration `yaml:"confirmation"`
	JobPoll       time.Duration `yaml:"job_poll"`
	BetweenJobs   time.Duration `yaml:"between_jobs"`
	// Job caps how long the run controller polls one job's status.
	Job           time.Duration `yaml:"job"`
	// StopGrace bounds the wait for a cancelled child to report its end.
	StopGrace     time.Duration `yaml:"stop_grace"`
	AfterClick    time.Duration `yaml:"after_click"`
	Settle        time.Duration `yaml:"settle"`
	IntraField    time.Duration `yaml:"intra_field"`
}

type StoreConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=badger redis"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
}

type RecordsConfig struct {
	Backend     string `yaml:"backend" validate:"oneof=rest postgres none"`
	BaseURL     string `yaml:"base_url"`
	DatabaseURL string `yaml:"database_url"`
	UserID      string `yaml:"user_id"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DedupConfig struct {
	CachePath string `yaml:"cache_path"`
}

// FilterConfig screens listing cards before a job is opened. Empty lists
// and a zero age disable the check.
type FilterConfig struct {
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	MaxAgeDays int      `yaml:"max_age_days" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string   `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output []string `yaml:"output"`
}

// Load reads .env, the YAML file, env overrides and defaults, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("AUTOAPPLY_CONFIG")
	if path == "" {
		path = defaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit YAML path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	//Override with env vars
	if v := os.Getenv("AUTOAPPLY_SITE"); v != "" {
		cfg.Site = v
	}
	if v := os.Getenv("AUTOAPPLY_DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AUTOAPPLY_DRY_RUN: %w", err)
		}
		cfg.DryRun = b
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Records.DatabaseURL = v
	}
	if v := os.Getenv("RECORDS_API_URL"); v != "" {
		cfg.Records.BaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Store.RedisURL = v
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = id
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	return nil
}

// ApplyDefaults fills every unset field. The policy values are the defaults
// the form engine has always used.
func ApplyDefaults(cfg *Config) {
	if cfg.Site == "" {
		cfg.Site = "stepstone"
	}
	if cfg.MaxSteps == 0 {
		cfg.MaxSteps = 4
	}
	if cfg.Browser.CookiesPath == "" {
		cfg.Browser.CookiesPath = "../.cookies"
	}
	if cfg.Browser.ScreenshotsDir == "" {
		cfg.Browser.ScreenshotsDir = "logs/screenshots"
	}

	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = "ollama"
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "http://localhost:11434"
	}
	if cfg.Oracle.Endpoint == "" {
		cfg.Oracle.Endpoint = "chat"
	}
	if cfg.Oracle.Model == "" {
		switch cfg.Oracle.Provider {
		case "claude":
			cfg.Oracle.Model = "claude-sonnet-4-20250514"
		case "gemini":
			cfg.Oracle.Model = "gemini-2.5-flash"
		default:
			cfg.Oracle.Model = "qwen2.5:3b"
		}
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 30 * time.Second
	}

	p := &cfg.Policy
	if p.YearsOfExperience == "" {
		p.YearsOfExperience = "5"
	}
	if p.StartDateMonths == 0 {
		p.StartDateMonths = 2
	}
	if p.Salutation == "" {
		p.Salutation = "Herr"
	}
	if p.Availability == "" {
		p.Availability = "Immediately"
	}
	if p.SalaryDefault == "" {
		p.SalaryDefault = "60000"
	}
	if p.CommuteAnswer == "" {
		p.CommuteAnswer = "Yes"
	}
	if p.CommuteAnswerDE == "" {
		p.CommuteAnswerDE = "Ja"
	}
	if p.NegotiableFallback == "" {
		p.NegotiableFallback = "Ja"
	}

	t := &cfg.Timeouts
	if t.DocumentReady == 0 {
		t.DocumentReady = 30 * time.Second
	}
	if t.Acknowledge == 0 {
		t.Acknowledge = 10 * time.Second
	}
	if t.Confirmation == 0 {
		t.Confirmation = 60 * time.Second
	}
	if t.JobPoll == 0 {
		t.JobPoll = 200 * time.Millisecond
	}
	if t.BetweenJobs == 0 {
		t.BetweenJobs = 2 * time.Second
	}
	if t.Job == 0 {
		t.Job = 10 * time.Minute
	}
	if t.StopGrace == 0 {
		t.StopGrace = 5 * time.Second
	}
	if t.AfterClick == 0 {
		t.AfterClick = 3 * time.Second
	}
	if t.Settle == 0 {
		t.Settle = 750 * time.Millisecond
	}
	if t.IntraField == 0 {
		t.IntraField = 200 * time.Millisecond
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "badger"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "../.cache/store"
	}
	if cfg.Records.Backend == "" {
		cfg.Records.Backend = "none"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Dedup.CachePath == "" {
		cfg.Dedup.CachePath = "../.cache"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks struct tags and cross-field requirements.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	//Validate required fields per backend
	if cfg.Store.Backend == "redis" && cfg.Store.RedisURL == "" {
		return fmt.Errorf("invalid config: REDIS_URL is required for the redis store")
	}
	switch cfg.Records.Backend {
	case "rest":
		if cfg.Records.BaseURL == "" {
			return fmt.Errorf("invalid config: RECORDS_API_URL is required for the rest record store")
		}
	case "postgres":
		if cfg.Records.DatabaseURL == "" {
			return fmt.Errorf("invalid config: DATABASE_URL is required for the postgres record store")
		}
	}
	if cfg.Oracle.Provider != "ollama" && cfg.Oracle.APIKey == "" {
		return fmt.Errorf("invalid config: ORACLE_API_KEY is required for provider %s", cfg.Oracle.Provider)
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return fmt.Errorf("invalid config: TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}
