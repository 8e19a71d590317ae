package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GeminiConfig holds Gemini API configuration.
type GeminiConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

// AuthConfig holds token signing configuration.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ExportConfig holds export generation configuration.
type ExportConfig struct {
	TemplatePath string `mapstructure:"template_path"`
	OutputDir    string `mapstructure:"output_dir"`
	UploadDir    string `mapstructure:"upload_dir"`
	// TransportDateOrder is "desc" (newest first, the default) or "asc".
	TransportDateOrder string `mapstructure:"transport_date_order"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/keihi.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Gemini defaults
	viper.SetDefault("gemini.model", "gemini-2.5-pro")
	viper.SetDefault("gemini.max_attempts", 3)
	viper.SetDefault("gemini.poll_interval", 1*time.Second)
	viper.SetDefault("gemini.upload_timeout", 2*time.Minute)

	// Auth defaults
	viper.SetDefault("auth.token_ttl", 24*time.Hour)

	// Export defaults
	viper.SetDefault("export.template_path", "templates/template.xlsx")
	viper.SetDefault("export.output_dir", "exports")
	viper.SetDefault("export.upload_dir", "uploads")
	viper.SetDefault("export.transport_date_order", "desc")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration.
func bindEnvVars() {
	// Sensitive credentials come from the environment
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	viper.BindEnv("auth.secret", "SECRET_KEY")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini.api_key is required")
	}
	if c.Gemini.MaxAttempts < 1 {
		return fmt.Errorf("gemini.max_attempts must be at least 1")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Export.TemplatePath == "" {
		return fmt.Errorf("export.template_path is required")
	}
	if o := c.Export.TransportDateOrder; o != "asc" && o != "desc" {
		return fmt.Errorf("export.transport_date_order must be \"asc\" or \"desc\"")
	}
	return nil
}
