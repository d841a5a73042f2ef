package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/a-essam23/syncboard/pkg/logging"
)

// EnvPrefix namespaces environment overrides, e.g. SYNCBOARD_SERVER_ADDRESS.
const EnvPrefix = "SYNCBOARD"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.auth.jwtSecret", "default-secret-key-change-me")
	v.SetDefault("server.auth.defaultPermissions", []string{"read", "write"})
	v.SetDefault("server.connectionLimit.maxPerUser", 0)
	v.SetDefault("server.connectionLimit.mode", "reject")
	v.SetDefault("server.originPatterns", []string{})
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("transport.readTimeout", "0s")
	v.SetDefault("transport.pingInterval", "30s")
	v.SetDefault("transport.readLimit", 1<<20)
	v.SetDefault("transport.sendBuffer", 256)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "syncboard.sqlite3")
	v.SetDefault("history.limit", 1000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration from a file and environment variables. fileName
// is either a bare name looked up in the working directory, where a missing
// file is not an error, or a path with an extension.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if filepath.Ext(fileName) != "" {
		// an explicit file path must exist
		v.SetConfigFile(fileName)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars", slog.String("name", fileName))
	} else {
		logger.Info("Loaded config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.ConnectionLimit.MaxPerUser > 0 {
		switch c.Server.ConnectionLimit.Mode {
		case "reject", "cycle":
		default:
			return fmt.Errorf("server.connectionLimit.mode must be 'reject' or 'cycle', got '%s'", c.Server.ConnectionLimit.Mode)
		}
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("store.driver must be 'sqlite' or 'memory', got '%s'", c.Store.Driver)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if c.Transport.SendBuffer <= 0 {
		return fmt.Errorf("transport.sendBuffer must be positive")
	}
	if _, err := c.Server.Auth.DefaultPermissionSet(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be 'text' or 'json', got '%s'", c.Logging.Format)
	}
	return nil
}
