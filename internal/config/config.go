package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - настройки приложения
type Config struct {
	Database Database
	HTTP     HTTP
	Telegram Telegram
	Log      Log
}

// Database - хранилище задач. Driver: memory, sqlite, sqlite3, mysql.
type Database struct {
	Driver  string
	DSN     string
	Timeout time.Duration
}

type HTTP struct {
	Addr string
}

type Telegram struct {
	Token string
	Debug bool
}

type Log struct {
	Level string
}

// Load читает конфиг из файла (если есть) и переменных окружения с префиксом TODOAPP_.
// Путь к файлу можно задать через TODOAPP_CONFIG.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("TODOAPP_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "todoapp"))
		v.AddConfigPath(".")
		v.SetConfigName("todoapp")
	}

	v.SetEnvPrefix("TODOAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Файла может не быть - это нормально, работаем на дефолтах и env
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/todoapp.db")
	v.SetDefault("database.timeout", 5*time.Second)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("log.level", "info")
}

// Validate проверяет, что драйвер хранилища нам известен
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
		return nil
	case "sqlite", "sqlite3", "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn обязателен для драйвера %s", c.Database.Driver)
		}
		return nil
	default:
		return fmt.Errorf("неизвестный драйвер хранилища: %q", c.Database.Driver)
	}
}
