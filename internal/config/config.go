package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Odoo      OdooConfig      `yaml:"odoo" mapstructure:"odoo"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Routing   RoutingConfig   `yaml:"routing" mapstructure:"routing"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OdooConfig holds Odoo JSON-RPC connection settings.
type OdooConfig struct {
	URL         string  `yaml:"url" mapstructure:"url"`
	Database    string  `yaml:"database" mapstructure:"database"`
	Username    string  `yaml:"username" mapstructure:"username"`
	Password    string  `yaml:"password" mapstructure:"password"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings for the product matcher.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ImportConfig configures the CSV import run and its audit outputs.
type ImportConfig struct {
	MappedCSV   string `yaml:"mapped_csv" mapstructure:"mapped_csv"`
	AcceptedXLS string `yaml:"accepted_xlsx" mapstructure:"accepted_xlsx"`
	RejectedXLS string `yaml:"rejected_xlsx" mapstructure:"rejected_xlsx"`
	ImportedCSV string `yaml:"imported_csv" mapstructure:"imported_csv"`
	StageName   string `yaml:"stage_name" mapstructure:"stage_name"`
	TeamName    string `yaml:"team_name" mapstructure:"team_name"`
}

// NotifyConfig configures the notification engine.
type NotifyConfig struct {
	WelcomeTemplate string `yaml:"welcome_template" mapstructure:"welcome_template"`
	ApologyTemplate string `yaml:"apology_template" mapstructure:"apology_template"`
}

// RoutingConfig configures lead-source ownership routing.
// File, when set, points to a yaml mapping of source name to owner login
// and replaces the built-in table.
type RoutingConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// StoreConfig configures the run-ledger database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("odoo.url", "http://localhost:8069")
	v.SetDefault("odoo.timeout_secs", 60)
	v.SetDefault("odoo.rate_limit", 0)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("import.mapped_csv", "leads_mapped.csv")
	v.SetDefault("import.accepted_xlsx", "accepted_leads.xlsx")
	v.SetDefault("import.rejected_xlsx", "rejected_leads.xlsx")
	v.SetDefault("import.imported_csv", "imported_new_stage.csv")
	v.SetDefault("import.stage_name", "New")
	v.SetDefault("import.team_name", "Sales")
	v.SetDefault("notify.welcome_template", "Welcome Email")
	v.SetDefault("notify.apology_template", "Apology Email")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
