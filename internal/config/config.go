package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Env           string   `mapstructure:"ENV"`
	LogLevel      string   `mapstructure:"LOG_LEVEL"`
	Port          string   `mapstructure:"PORT"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBHost        string   `mapstructure:"DB_HOST"`
	DBPort        string   `mapstructure:"DB_PORT"`
	DBName        string   `mapstructure:"DB_NAME"`
	DBUser        string   `mapstructure:"DB_USER"`
	DBSchema      string   `mapstructure:"DB_SCHEMA"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir string   `mapstructure:"MIGRATIONS_DIR"`
	AuthSecret    string   `mapstructure:"AUTH_SECRET"`
	AuthIssuer    string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience  string   `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	ServiceName   string   `mapstructure:"SERVICE_NAME"`
	OTLPEndpoint  string   `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure  bool     `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "PORT", "DATABASE_URL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_SCHEMA",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"AUTH_SECRET", "AUTH_ISSUER", "AUTH_AUDIENCE", "CORS_ORIGINS",
	"SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"database-url": "DATABASE_URL",
	"db-host":      "DB_HOST",
	"db-port":      "DB_PORT",
	"db-name":      "DB_NAME",
	"db-user":      "DB_USER",
	"db-schema":    "DB_SCHEMA",
	"log-level":    "LOG_LEVEL",
	"migrations":   "MIGRATIONS_DIR",
}

func Load() (*Config, error) {
	return load(nil, true)
}

// LoadWithFlags is Load with any flags in fs that were set on the command
// line taking precedence over the environment and the .env file.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, true)
}

// LoadWithoutDatabase is LoadWithFlags for commands that never connect, so a
// missing DATABASE_URL is not an error.
func LoadWithoutDatabase(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, false)
}

func load(fs *pflag.FlagSet, requireDB bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("SERVICE_NAME", "clinic")
	v.SetDefault("AUTH_ISSUER", "clinic")
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" && cfg.DBName != "" {
		cfg.DatabaseURL = cfg.composeURL()
	}
	if requireDB && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL (or DB_NAME) is required")
	}

	return cfg, nil
}

// composeURL builds a connection string from the host/port/name/user triple
// that the menu program historically took as positional arguments.
func (c *Config) composeURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	if c.DBUser != "" {
		u.User = url.User(c.DBUser)
	}
	return u.String()
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Production requires
// an AUTH_SECRET so that the HTTP API never falls back to dev auth.
func (c *Config) Validate() error {
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	if c.AuthSecret != "" && len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 characters, got %d", len(c.AuthSecret))
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d", c.DBMaxConns, c.DBMinConns)
	}
	if strings.ContainsAny(c.DBSchema, " ;\"'") {
		return fmt.Errorf("DB_SCHEMA %q is not a valid schema name", c.DBSchema)
	}
	return nil
}
