package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline and its commands.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Source   SourceConfig   `mapstructure:"source"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Hero     HeroConfig     `mapstructure:"hero"`
	Blogger  BloggerConfig  `mapstructure:"blogger"`
	Output   OutputConfig   `mapstructure:"output"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Server   ServerConfig   `mapstructure:"server"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PipelineConfig drives what a single run does.
type PipelineConfig struct {
	Query        string `mapstructure:"query"`
	Topic        string `mapstructure:"topic"`
	RecordLimit  int    `mapstructure:"record_limit"`
	LengthMin    int    `mapstructure:"length_min"`
	LengthMax    int    `mapstructure:"length_max"`
	SentenceTrim bool   `mapstructure:"sentence_trim"`
	Publish      bool   `mapstructure:"publish"`
	Enrich       bool   `mapstructure:"enrich"`
	RelatedLinks bool   `mapstructure:"related_links"`
}

// Normalize applies defaults and clamps the record limit to the API's 1-50 window.
func (p PipelineConfig) Normalize() PipelineConfig {
	if p.RecordLimit <= 0 {
		p.RecordLimit = 10
	}
	if p.RecordLimit > 50 {
		p.RecordLimit = 50
	}
	if p.LengthMax <= 0 {
		p.LengthMax = 2000
	}
	if p.LengthMin < 0 {
		p.LengthMin = 0
	}
	if p.LengthMin > p.LengthMax {
		p.LengthMin = 0
	}
	if strings.TrimSpace(p.Topic) == "" {
		p.Topic = p.Query
	}
	return p
}

// SourceConfig selects where headlines come from.
type SourceConfig struct {
	Kind     string   `mapstructure:"kind"` // gdelt, rss or newsapi
	Feeds    []string `mapstructure:"feeds"`
	APIKey   string   `mapstructure:"api_key"`
	Endpoint string   `mapstructure:"endpoint"`
}

func (s SourceConfig) Normalize() SourceConfig {
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	if s.Kind == "" {
		s.Kind = "gdelt"
	}
	return s
}

func (s SourceConfig) Validate() error {
	switch s.Kind {
	case "gdelt":
		return nil
	case "rss":
		if len(s.Feeds) == 0 {
			return fmt.Errorf("source.feeds required when source.kind is rss")
		}
		return nil
	case "newsapi":
		if strings.TrimSpace(s.APIKey) == "" {
			return fmt.Errorf("source.api_key required when source.kind is newsapi")
		}
		return nil
	default:
		return fmt.Errorf("source.kind must be gdelt, rss or newsapi, got %q", s.Kind)
	}
}

// OpenAIConfig contains the text and image model settings.
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	TextModel   string        `mapstructure:"text_model"`
	ImageModel  string        `mapstructure:"image_model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (o OpenAIConfig) Normalize() OpenAIConfig {
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(o.TextModel) == "" {
		o.TextModel = "gpt-4o-mini"
	}
	if strings.TrimSpace(o.ImageModel) == "" {
		o.ImageModel = "gpt-image-1"
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.4
	}
	if o.Timeout <= 0 {
		o.Timeout = 120 * time.Second
	}
	return o
}

// HeroConfig selects the hero image strategy.
type HeroConfig struct {
	Strategy string `mapstructure:"strategy"` // generated or placeholder
}

func (h HeroConfig) Normalize() HeroConfig {
	h.Strategy = strings.ToLower(strings.TrimSpace(h.Strategy))
	if h.Strategy == "" {
		h.Strategy = "placeholder"
	}
	return h
}

func (h HeroConfig) Validate() error {
	if h.Strategy != "generated" && h.Strategy != "placeholder" {
		return fmt.Errorf("hero.strategy must be generated or placeholder, got %q", h.Strategy)
	}
	return nil
}

// BloggerConfig contains OAuth and API settings for publishing.
type BloggerConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	BlogID       string `mapstructure:"blog_id"`
	TokenURL     string `mapstructure:"token_url"`
	APIURL       string `mapstructure:"api_url"`
}

func (b BloggerConfig) Normalize() BloggerConfig {
	if strings.TrimSpace(b.TokenURL) == "" {
		b.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if strings.TrimSpace(b.APIURL) == "" {
		b.APIURL = "https://www.googleapis.com"
	}
	return b
}

// OutputConfig contains local filesystem settings.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

func (o OutputConfig) Normalize() OutputConfig {
	if strings.TrimSpace(o.Dir) == "" {
		o.Dir = "output"
	}
	return o
}

// ArchiveConfig enables the optional run archive and related-links index.
type ArchiveConfig struct {
	PostgresURL string `mapstructure:"postgres_url"`
	IndexPath   string `mapstructure:"index_path"`
}

// Enabled reports whether any archive backend is configured.
func (a ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(a.PostgresURL) != "" || strings.TrimSpace(a.IndexPath) != ""
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address           string `mapstructure:"address"`
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

func (s ServerConfig) Normalize() ServerConfig {
	if strings.TrimSpace(s.Address) == "" {
		s.Address = ":10001"
	}
	return s
}

// ScheduleConfig holds the optional cron expression for unattended runs.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// RedisConfig contains Redis connection settings for the scheduler lock.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Operation names a command for requirement checks.
type Operation string

const (
	OpRun     Operation = "run"
	OpPublish Operation = "publish"
	OpServe   Operation = "serve"
	OpMigrate Operation = "migrate"
)

// Missing returns every required key absent for the given operation, so the
// operator sees the full list at once instead of one failure per attempt.
func (c *Config) Missing(op Operation) []string {
	var missing []string
	need := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}

	bloggerSet := func() {
		need("blogger.client_id", c.Blogger.ClientID)
		need("blogger.client_secret", c.Blogger.ClientSecret)
		need("blogger.refresh_token", c.Blogger.RefreshToken)
		need("blogger.blog_id", c.Blogger.BlogID)
	}

	switch op {
	case OpRun:
		need("openai.api_key", c.OpenAI.APIKey)
		if c.Pipeline.Publish {
			bloggerSet()
		}
	case OpPublish:
		bloggerSet()
	case OpServe:
		need("server.jwt_secret", c.Server.JWTSecret)
		need("server.admin_password_hash", c.Server.AdminPasswordHash)
		if strings.TrimSpace(c.Schedule.Cron) != "" {
			need("redis.addr", c.Redis.Addr)
		}
	case OpMigrate:
		need("archive.postgres_url", c.Archive.PostgresURL)
	}

	sort.Strings(missing)
	return missing
}

// Load reads configuration from an optional file plus DRAFTMILL_* environment
// variables. A missing config file is fine when no explicit path was given;
// cron and container deployments run on environment alone.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if path == "" {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DRAFTMILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional unprefixed names as fallbacks.
	_ = v.BindEnv("openai.api_key", "DRAFTMILL_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("blogger.client_id", "DRAFTMILL_BLOGGER_CLIENT_ID", "CLIENT_ID")
	_ = v.BindEnv("blogger.client_secret", "DRAFTMILL_BLOGGER_CLIENT_SECRET", "CLIENT_SECRET")
	_ = v.BindEnv("blogger.refresh_token", "DRAFTMILL_BLOGGER_REFRESH_TOKEN", "BLOGGER_REFRESH_TOKEN")
	_ = v.BindEnv("blogger.blog_id", "DRAFTMILL_BLOGGER_BLOG_ID", "BLOGGER_BLOG_ID")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Pipeline = cfg.Pipeline.Normalize()
	cfg.Source = cfg.Source.Normalize()
	cfg.OpenAI = cfg.OpenAI.Normalize()
	cfg.Hero = cfg.Hero.Normalize()
	cfg.Blogger = cfg.Blogger.Normalize()
	cfg.Output = cfg.Output.Normalize()
	cfg.Server = cfg.Server.Normalize()

	if err := cfg.Source.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Hero.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see env-only values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.query", "")
	v.SetDefault("pipeline.topic", "")
	v.SetDefault("pipeline.record_limit", 10)
	v.SetDefault("pipeline.length_min", 0)
	v.SetDefault("pipeline.length_max", 2000)
	v.SetDefault("pipeline.sentence_trim", false)
	v.SetDefault("pipeline.publish", false)
	v.SetDefault("pipeline.enrich", false)
	v.SetDefault("pipeline.related_links", false)
	v.SetDefault("source.kind", "gdelt")
	v.SetDefault("source.feeds", []string{})
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.endpoint", "")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.text_model", "")
	v.SetDefault("openai.image_model", "")
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.timeout", "0s")
	v.SetDefault("hero.strategy", "")
	v.SetDefault("blogger.client_id", "")
	v.SetDefault("blogger.client_secret", "")
	v.SetDefault("blogger.refresh_token", "")
	v.SetDefault("blogger.blog_id", "")
	v.SetDefault("blogger.token_url", "")
	v.SetDefault("blogger.api_url", "")
	v.SetDefault("output.dir", "")
	v.SetDefault("archive.postgres_url", "")
	v.SetDefault("archive.index_path", "")
	v.SetDefault("server.address", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.admin_password_hash", "")
	v.SetDefault("schedule.cron", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}
