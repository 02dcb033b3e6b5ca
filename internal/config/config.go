package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	apperror "github.com/bravo68web/repolens/pkg/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Scan     ScanConfig     `mapstructure:"scan"`
	AI       AIConfig       `mapstructure:"ai"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	OTel     OTelConfig     `mapstructure:"otel"`
}

// DatabaseConfig holds the record store configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, postgres
	Path     string `mapstructure:"path"`   // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the database connection string
func (d *DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// IsSQLite returns true if the store is a local sqlite file
func (d *DatabaseConfig) IsSQLite() bool {
	return strings.ToLower(d.Driver) == "sqlite" || d.Driver == ""
}

// IsPostgres returns true if the store is PostgreSQL
func (d *DatabaseConfig) IsPostgres() bool {
	return strings.ToLower(d.Driver) == "postgres"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"` // debug, info, warn, error
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json, console
}

// OTelConfig holds OpenTelemetry export configuration
type OTelConfig struct {
	Enabled      bool              `mapstructure:"enabled"`
	Endpoint     string            `mapstructure:"endpoint"`
	ServiceName  string            `mapstructure:"service_name"`
	Environment  string            `mapstructure:"environment"`
	Insecure     bool              `mapstructure:"insecure"`
	UseHTTP      bool              `mapstructure:"use_http"`
	Headers      map[string]string `mapstructure:"headers"`
	BatchTimeout int               `mapstructure:"batch_timeout"` // seconds
}

// Load reads configuration from file and environment variables.
// An explicit path must exist; otherwise the usual locations are tried and
// defaults plus REPOLENS_* environment variables are used when none is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("REPOLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, apperror.ConfigError("config file "+configPath, err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperror.ConfigError("failed to read config file", err)
		}
	} else {
		v.SetConfigName("repolens")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config/repolens")
		}

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, apperror.ConfigError("failed to read config file", err)
			}
		}
	}

	overrideFromEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.ConfigError("failed to unmarshal config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperror.ConfigError("invalid configuration", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./repolens.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "repolens")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "repolens")
	v.SetDefault("database.sslmode", "disable")

	scan := DefaultScanConfig()
	v.SetDefault("scan.root", scan.Root)
	v.SetDefault("scan.max_depth", scan.MaxDepth)
	v.SetDefault("scan.ignore", scan.Ignore)
	v.SetDefault("scan.cutoff_days", scan.CutoffDays)
	v.SetDefault("scan.identity", scan.Identity)
	v.SetDefault("scan.workers", scan.Workers)
	v.SetDefault("scan.commit_window_days", scan.CommitWindowDays)
	v.SetDefault("scan.repo_timeout", scan.RepoTimeoutSeconds)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "claude-3-5-haiku-20241022")
	v.SetDefault("ai.requests_per_minute", 30)
	v.SetDefault("ai.timeout", 30)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output_path", "stderr")
	v.SetDefault("logging.format", "console")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.service_name", "repolens")
	v.SetDefault("otel.environment", "development")
	v.SetDefault("otel.insecure", true)
	v.SetDefault("otel.use_http", false)
	v.SetDefault("otel.batch_timeout", 5)
}

func overrideFromEnv(v *viper.Viper) {
	if dbPass := os.Getenv("REPOLENS_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && v.GetString("ai.api_key") == "" {
		v.Set("ai.api_key", key)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch {
	case c.Database.IsSQLite():
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case c.Database.IsPostgres():
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Scan.MaxDepth < 1 {
		return fmt.Errorf("scan max_depth must be at least 1, got %d", c.Scan.MaxDepth)
	}
	if c.Scan.CutoffDays < 0 {
		return fmt.Errorf("scan cutoff_days must not be negative, got %d", c.Scan.CutoffDays)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan workers must be at least 1, got %d", c.Scan.Workers)
	}
	if c.Scan.CommitWindowDays < 1 {
		return fmt.Errorf("scan commit_window_days must be at least 1, got %d", c.Scan.CommitWindowDays)
	}

	if c.AI.Enabled && c.AI.Model == "" {
		return fmt.Errorf("ai model is required when ai is enabled")
	}

	if c.OTel.Enabled && c.OTel.Endpoint == "" {
		return fmt.Errorf("otel endpoint is required when otel is enabled")
	}

	return nil
}

// LoggerOutputIsFile reports whether logs go to a file rather than the terminal
func (c *LoggingConfig) LoggerOutputIsFile() bool {
	return c.OutputPath != "" && c.OutputPath != "stderr" && c.OutputPath != "stdout"
}
