package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "TASKDECK"

const (
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Templates  TemplatesConfig  `mapstructure:"templates"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	MaxConnections int32         `mapstructure:"max_connections" validate:"gte=0"`
	MinConnections int32         `mapstructure:"min_connections" validate:"gte=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite inmemory"`
}

// SyncConfig фоновая синхронизация кэша. Нулевой интервал её выключает.
type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// TemplatesConfig пустой путь означает встроенный каталог.
type TemplatesConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "taskdeck.db")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("sync.interval", 5*time.Minute)
	v.SetDefault("templates.path", "")
}

// Load читает конфиг из файла и переменных окружения TASKDECK_*.
// Окружение важнее файла. Пустой path ищет config.yml в текущей папке,
// отсутствие такого файла не ошибка.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(repositoryLevel, Config{})
	return v
}

// repositoryLevel проверяет, что у выбранного хранилища есть адрес.
func repositoryLevel(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	switch cfg.Repository.Type {
	case RepositoryPostgres:
		if cfg.Database.URL == "" {
			sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_for_postgres", "")
		}
	case RepositorySQLite:
		if cfg.Database.SQLitePath == "" {
			sl.ReportError(cfg.Database.SQLitePath, "Database.SQLitePath", "SQLitePath", "required_for_sqlite", "")
		}
	}
	if cfg.Database.MaxConnections > 0 && cfg.Database.MinConnections > cfg.Database.MaxConnections {
		sl.ReportError(cfg.Database.MinConnections, "Database.MinConnections", "MinConnections", "ltefield", "MaxConnections")
	}
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("неверный конфиг: %w", err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
