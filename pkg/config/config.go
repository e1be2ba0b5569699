// Package config loads settings for the cbapi binaries from a YAML file
// and CBAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/Sternrassler/crunchbase-client/pkg/client"
	"github.com/Sternrassler/crunchbase-client/pkg/pagination"
)

// Keys as they appear in the YAML file. Environment variables use the
// CBAPI_ prefix with dots replaced by underscores (CBAPI_REDIS_ADDR).
const (
	KeyAPIKey      = "api_key"
	KeyBaseURL     = "base_url"
	KeyHost        = "host"
	KeyWorkers     = "workers"
	KeyStrategy    = "strategy"
	KeyTimeout     = "timeout"
	KeyPageTimeout = "page_timeout"
	KeyLogLevel    = "log.level"
	KeyLogPretty   = "log.pretty"
	KeyRedisAddr   = "redis.addr"
	KeyRedisPass   = "redis.password"
	KeyRedisDB     = "redis.db"
	KeyRedisKey    = "redis.key"
	KeyListenAddr  = "listen_addr"
)

// FileName is the default config file name in the user's home directory.
const FileName = ".cbapi.yaml"

// Config is the resolved configuration.
type Config struct {
	APIKey      string
	BaseURL     string
	Host        string
	Workers     int
	Strategy    string
	Timeout     time.Duration
	PageTimeout time.Duration
	LogLevel    string
	LogPretty   bool
	ListenAddr  string
	Redis       RedisConfig

	// File is the config file that was read, empty if none.
	File string
}

// RedisConfig configures the Redis result sink.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// DefaultPath returns ~/.cbapi.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CBAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBaseURL, "https://crunchbase-crunchbase-v1.p.rapidapi.com")
	v.SetDefault(KeyHost, "crunchbase-crunchbase-v1.p.rapidapi.com")
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyStrategy, "chunked")
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyPageTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisDB, 0)
	v.SetDefault(KeyRedisKey, "cbapi:results")

	// AutomaticEnv only covers keys viper already knows about
	for _, key := range []string{KeyAPIKey, KeyRedisPass} {
		if err := v.BindEnv(key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Failed to bind config key to environment")
		}
	}
	return v
}

// Load reads path (or ~/.cbapi.yaml when path is empty). A missing file is
// not an error: defaults and environment variables still apply.
func Load(path string) (Config, error) {
	v := newViper()

	if path == "" {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	var file string
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			file = v.ConfigFileUsed()
		}
	}

	cfg := Config{
		APIKey:      v.GetString(KeyAPIKey),
		BaseURL:     v.GetString(KeyBaseURL),
		Host:        v.GetString(KeyHost),
		Workers:     v.GetInt(KeyWorkers),
		Strategy:    v.GetString(KeyStrategy),
		Timeout:     v.GetDuration(KeyTimeout),
		PageTimeout: v.GetDuration(KeyPageTimeout),
		LogLevel:    v.GetString(KeyLogLevel),
		LogPretty:   v.GetBool(KeyLogPretty),
		ListenAddr:  v.GetString(KeyListenAddr),
		Redis: RedisConfig{
			Addr:     v.GetString(KeyRedisAddr),
			Password: v.GetString(KeyRedisPass),
			DB:       v.GetInt(KeyRedisDB),
			Key:      v.GetString(KeyRedisKey),
		},
		File: file,
	}

	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be >= 1 (got %d)", cfg.Workers)
	}
	return cfg, nil
}

// SaveAPIKey stores key in the config file at path (default ~/.cbapi.yaml),
// keeping any other settings already in the file.
func SaveAPIKey(path, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.Set(KeyAPIKey, key)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ClientConfig maps the settings onto a client configuration.
func (c Config) ClientConfig() (client.Config, error) {
	strategy, err := pagination.ParseStrategy(c.Strategy)
	if err != nil {
		return client.Config{}, err
	}

	cc := client.DefaultConfig(c.APIKey)
	cc.BaseURL = c.BaseURL
	cc.Host = c.Host
	cc.Timeout = c.Timeout
	cc.MaxWorkers = c.Workers
	cc.Strategy = strategy
	cc.PageTimeout = c.PageTimeout
	return cc, nil
}
