package mssql

import (
	"fmt"
	"strings"
	"time"

	"github.com/kent-id/mssqlconv"
	"github.com/spf13/viper"
)

const (
	DriverSQLServer = "sqlserver"
	DriverODBC      = "odbc"

	defaultPageSize = 1000
)

// Config configures a Client.
type Config struct {
	// database/sql driver name: "sqlserver" (go-mssqldb) or "odbc"
	Driver string `mapstructure:"driver"`
	// connection string understood by Driver
	DSN string `mapstructure:"dsn"`
	// per query timeout, 0 disables it
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	// rows handed to the mapper at a time
	PageSize int    `mapstructure:"page_size"`
	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig reads a yaml config file. Every key can be overridden from the
// environment with the MSSQLCONV_ prefix, e.g. MSSQLCONV_DSN.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MSSQLCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("driver", DriverSQLServer)
	v.SetDefault("dsn", "")
	v.SetDefault("query_timeout", 0)
	v.SetDefault("page_size", defaultPageSize)
	v.SetDefault("log_level", "warn")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg and fills in defaults for optional fields.
func (cfg *Config) Validate() error {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLServer
	}
	switch cfg.Driver {
	case DriverSQLServer, "mssql", DriverODBC:
	default:
		return fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	if cfg.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout must not be negative, got: %s", cfg.QueryTimeout)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if _, err := mssqlconv.ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}
