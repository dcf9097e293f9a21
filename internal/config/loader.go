package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rpattn/memberql/internal/db"
	"github.com/rpattn/memberql/internal/pkg/log"
	"github.com/rpattn/memberql/internal/search"
)

// SearchConfig tunes the member search facade.
type SearchConfig struct {
	DefaultPageSize  int
	MaxPageSize      int
	CountStrategy    search.CountStrategy
	RequireCondition bool
}

// Options turns the settings into search service options.
func (c SearchConfig) Options() []search.Option {
	return []search.Option{
		search.WithDefaultPageSize(c.DefaultPageSize),
		search.WithMaxPageSize(c.MaxPageSize),
		search.WithCountStrategy(c.CountStrategy),
		search.WithRequireCondition(c.RequireCondition),
	}
}

type Config struct {
	Database db.Config
	Search   SearchConfig
	Debug    bool
}

func setDefaults(v *viper.Viper) {
	d := db.DefaultConfig()
	v.SetDefault("database.driver", d.Driver)
	v.SetDefault("database.host", d.Host)
	v.SetDefault("database.port", d.Port)
	v.SetDefault("database.user", d.User)
	v.SetDefault("database.password", d.Password)
	v.SetDefault("database.dbname", d.DBName)
	v.SetDefault("database.sslmode", d.SSLMode)
	v.SetDefault("database.max_conns", d.MaxConns)
	v.SetDefault("database.min_conns", d.MinConns)
	v.SetDefault("database.sqlite_path", d.SQLitePath)

	v.SetDefault("search.default_page_size", 20)
	v.SetDefault("search.max_page_size", 1000)
	v.SetDefault("search.count_strategy", string(search.CountLazy))
	v.SetDefault("search.require_condition", false)

	v.SetDefault("debug", false)
}

// Load reads config.yaml from configPath, then the environment. A .env file
// next to config.yaml is loaded into the environment first; variables that
// are already set win. Keys map to variables like MEMBERQL_DATABASE_HOST.
func Load(configPath string) (Config, error) {
	envFile := filepath.Join(configPath, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("MEMBERQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		log.Info("No config.yaml found, using defaults and env vars")
	} else {
		log.Info("Loaded %s", v.ConfigFileUsed())
	}

	strategy, err := search.ParseCountStrategy(v.GetString("search.count_strategy"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Database: db.Config{
			Driver:     strings.ToLower(v.GetString("database.driver")),
			Host:       v.GetString("database.host"),
			Port:       v.GetInt("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DBName:     v.GetString("database.dbname"),
			SSLMode:    v.GetString("database.sslmode"),
			MaxConns:   v.GetInt32("database.max_conns"),
			MinConns:   v.GetInt32("database.min_conns"),
			SQLitePath: v.GetString("database.sqlite_path"),
		},
		Search: SearchConfig{
			DefaultPageSize:  v.GetInt("search.default_page_size"),
			MaxPageSize:      v.GetInt("search.max_page_size"),
			CountStrategy:    strategy,
			RequireCondition: v.GetBool("search.require_condition"),
		},
		Debug: v.GetBool("debug"),
	}
	switch cfg.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return cfg, nil
}
