package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
	Server     ServerConfig     `mapstructure:"server"`
	Search     SearchConfig     `mapstructure:"search"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string        `mapstructure:"dsn"` // takes precedence over the discrete fields
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	Database           string        `mapstructure:"database"`
	SSLMode            string        `mapstructure:"sslmode"`
	MaxConnections     int           `mapstructure:"max_connections"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	GinMode         string        `mapstructure:"gin_mode"`
	AllowedOrigins  string        `mapstructure:"allowed_origins"`
	AllowedMethods  string        `mapstructure:"allowed_methods"`
	AllowedHeaders  string        `mapstructure:"allowed_headers"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SearchConfig holds search pipeline limits
type SearchConfig struct {
	DefaultLimit     int           `mapstructure:"default_limit"`
	MaxRows          int           `mapstructure:"max_rows"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	MaxPromptChars   int           `mapstructure:"max_prompt_chars"`
	ExamplesK        int           `mapstructure:"examples_k"`
	ExposeSQL        bool          `mapstructure:"expose_sql"`
}

// GeneratorConfig selects the SQL generation backend and its admission
// control.
type GeneratorConfig struct {
	Backend        string        `mapstructure:"backend"` // auto, openai or rules
	Slots          int64         `mapstructure:"slots"`
	RejectWhenBusy bool          `mapstructure:"reject_when_busy"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	APIBase         string        `mapstructure:"api_base"`
	ChatModel       string        `mapstructure:"chat_model"`
	ChatTemperature float64       `mapstructure:"chat_temperature"`
	ChatTopP        float64       `mapstructure:"chat_top_p"`
	ChatMaxTokens   int           `mapstructure:"chat_max_tokens"`
	ChatExtraBody   string        `mapstructure:"chat_extra_body"` // JSON object, e.g. {"chat_template_kwargs":{"thinking":true}}
	Stream          bool          `mapstructure:"stream"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether an API key is configured.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// RedisConfig configures the optional SQL cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig bounds /api/search per client IP.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalyzerConfig tunes query analysis.
type AnalyzerConfig struct {
	RoomPolicy string `mapstructure:"room_policy"` // last or first
}

type setting struct {
	key  string
	def  any
	envs []string
}

// Each key keeps the environment names the service has always used.
var settings = []setting{
	{"postgresql.dsn", "", []string{"DATABASE_URL", "POSTGRESQL_URI", "PG_DSN"}},
	{"postgresql.host", "localhost", []string{"PG_HOST", "DB_HOST"}},
	{"postgresql.port", 5432, []string{"PG_PORT", "DB_PORT"}},
	{"postgresql.user", "realtor_user", []string{"PG_USER", "DB_USER"}},
	{"postgresql.password", "", []string{"PG_PASSWORD", "DB_PASSWORD"}},
	{"postgresql.database", "njuskam_ultimate3", []string{"PG_DATABASE", "DB_NAME"}},
	{"postgresql.sslmode", "disable", []string{"PG_SSLMODE"}},
	{"postgresql.max_connections", 15, []string{"PG_MAX_CONNECTIONS"}},
	{"postgresql.max_idle_connections", 5, []string{"PG_MAX_IDLE_CONNECTIONS"}},
	{"postgresql.conn_max_lifetime", time.Hour, []string{"PG_CONN_MAX_LIFETIME"}},

	{"server.port", 8080, []string{"SERVER_PORT"}},
	{"server.host", "0.0.0.0", []string{"SERVER_HOST"}},
	{"server.gin_mode", "release", []string{"GIN_MODE"}},
	{"server.allowed_origins", "*", []string{"CORS_ALLOWED_ORIGINS"}},
	{"server.allowed_methods", "GET,POST,OPTIONS", []string{"CORS_ALLOWED_METHODS"}},
	{"server.allowed_headers", "Content-Type,Authorization,X-Request-ID", []string{"CORS_ALLOWED_HEADERS"}},
	{"server.shutdown_timeout", 10 * time.Second, []string{"SERVER_SHUTDOWN_TIMEOUT"}},

	{"search.default_limit", 20, []string{"SEARCH_DEFAULT_LIMIT"}},
	{"search.max_rows", 50, []string{"SEARCH_MAX_ROWS", "MAX_QUERY_RESULTS"}},
	{"search.request_timeout", 30 * time.Second, []string{"SEARCH_REQUEST_TIMEOUT"}},
	{"search.statement_timeout", 10 * time.Second, []string{"SEARCH_STATEMENT_TIMEOUT"}},
	{"search.max_prompt_chars", 8000, []string{"SEARCH_MAX_PROMPT_CHARS"}},
	{"search.examples_k", 4, []string{"SEARCH_EXAMPLES_K"}},
	{"search.expose_sql", false, []string{"SEARCH_EXPOSE_SQL"}},

	{"generator.backend", "auto", []string{"GENERATOR_BACKEND"}},
	{"generator.slots", 1, []string{"GENERATOR_SLOTS", "ACCELERATOR_COUNT"}},
	{"generator.reject_when_busy", false, []string{"GENERATOR_REJECT_WHEN_BUSY"}},
	{"generator.timeout", 20 * time.Second, []string{"GENERATION_TIMEOUT"}},

	{"openai.api_key", "", []string{"OPENAI_API_KEY"}},
	{"openai.api_base", "https://api.openai.com/v1", []string{"OPENAI_API_BASE"}},
	{"openai.chat_model", "gpt-4.1", []string{"OPENAI_CHAT_MODEL", "LLM_MODEL"}},
	{"openai.chat_temperature", 0.1, []string{"OPENAI_CHAT_TEMPERATURE", "LLM_TEMPERATURE"}},
	{"openai.chat_top_p", 0.0, []string{"OPENAI_CHAT_TOP_P"}},
	{"openai.chat_max_tokens", 1024, []string{"OPENAI_CHAT_MAX_TOKENS"}},
	{"openai.chat_extra_body", "", []string{"OPENAI_CHAT_EXTRA_BODY"}},
	{"openai.stream", false, []string{"OPENAI_STREAM"}},
	{"openai.timeout", 30 * time.Second, []string{"OPENAI_TIMEOUT"}},

	{"redis.addr", "", []string{"REDIS_ADDR"}},
	{"redis.password", "", []string{"REDIS_PASSWORD"}},
	{"redis.db", 0, []string{"REDIS_DB"}},
	{"redis.ttl", 24 * time.Hour, []string{"REDIS_TTL"}},

	{"ratelimit.enabled", true, []string{"RATE_LIMIT_ENABLED"}},
	{"ratelimit.rps", 2.0, []string{"RATE_LIMIT_RPS"}},
	{"ratelimit.burst", 5, []string{"RATE_LIMIT_BURST"}},

	{"logging.level", "info", []string{"LOG_LEVEL"}},
	{"logging.format", "json", []string{"LOG_FORMAT"}},

	{"analyzer.room_policy", "last", []string{"ANALYZER_ROOM_POLICY"}},
}

// Load reads an optional .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(append([]string{s.key}, s.envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", s.key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate rejects limits and timeouts that would disable the pipeline.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.MaxRows <= 0 {
		errs = append(errs, errors.New("search.max_rows must be positive"))
	}
	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, errors.New("search.default_limit must be positive"))
	}
	if c.Search.RequestTimeout <= 0 {
		errs = append(errs, errors.New("search.request_timeout must be positive"))
	}
	if c.Search.MaxPromptChars <= 0 {
		errs = append(errs, errors.New("search.max_prompt_chars must be positive"))
	}
	if c.Generator.Slots <= 0 {
		errs = append(errs, errors.New("generator.slots must be positive"))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout must be positive"))
	}
	switch c.Generator.Backend {
	case "auto", "openai", "rules":
	default:
		errs = append(errs, fmt.Errorf("generator.backend %q is not one of auto, openai, rules", c.Generator.Backend))
	}
	if c.Generator.Backend == "openai" && !c.OpenAI.Enabled() {
		errs = append(errs, errors.New("generator.backend openai requires OPENAI_API_KEY"))
	}
	return errors.Join(errs...)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}
