package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/a-essam23/syncboard/pkg/config"
	"github.com/a-essam23/syncboard/pkg/logging"
	"github.com/a-essam23/syncboard/pkg/state"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(logging.Discard(), "does-not-exist")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, time.Duration(0), cfg.Transport.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Transport.PingInterval)
	assert.Equal(t, int64(1<<20), cfg.Transport.ReadLimit)
	assert.Equal(t, 256, cfg.Transport.SendBuffer)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "syncboard.sqlite3", cfg.Store.DSN)
	assert.Equal(t, 1000, cfg.History.Limit)

	perms, err := cfg.Server.Auth.DefaultPermissionSet()
	assert.Equal(t, nil, err)
	assert.Equal(t, state.PermDefault, perms)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SYNCBOARD_SERVER_ADDRESS", "127.0.0.1:9999")
	t.Setenv("SYNCBOARD_STORE_DRIVER", "memory")
	t.Setenv("SYNCBOARD_HISTORY_LIMIT", "5")
	t.Setenv("SYNCBOARD_TRANSPORT_READTIMEOUT", "45s")

	cfg, err := config.Load(logging.Discard(), "does-not-exist")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.Equal(t, 45*time.Second, cfg.Transport.ReadTimeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	body := `
server:
  address: ":7000"
  auth:
    jwtSecret: "s3cret"
    defaultPermissions: ["read"]
  connectionLimit:
    maxPerUser: 2
    mode: cycle
store:
  driver: memory
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(logging.Discard(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "s3cret", cfg.Server.Auth.JWTSecret)
	assert.Equal(t, 2, cfg.Server.ConnectionLimit.MaxPerUser)
	assert.Equal(t, "cycle", cfg.Server.ConnectionLimit.Mode)
	assert.Equal(t, "json", cfg.Logging.Format)

	perms, err := cfg.Server.Auth.DefaultPermissionSet()
	assert.Equal(t, nil, err)
	assert.Equal(t, state.PermCanRead, perms)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(logging.Discard(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server:    config.ServerConfig{Address: ":1"},
			Transport: config.TransportConfig{SendBuffer: 1},
			Store:     config.StoreConfig{Driver: "memory"},
			Logging:   config.LoggingConfig{Level: "info", Format: "text"},
		}
	}
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		ok     bool
	}{
		{"valid", func(c *config.Config) {}, true},
		{"bad limiter mode", func(c *config.Config) {
			c.Server.ConnectionLimit = config.ConnectionLimitConfig{MaxPerUser: 1, Mode: "queue"}
		}, false},
		{"mode ignored when unlimited", func(c *config.Config) { c.Server.ConnectionLimit.Mode = "queue" }, true},
		{"bad driver", func(c *config.Config) { c.Store.Driver = "postgres" }, false},
		{"negative history", func(c *config.Config) { c.History.Limit = -1 }, false},
		{"zero send buffer", func(c *config.Config) { c.Transport.SendBuffer = 0 }, false},
		{"unknown permission", func(c *config.Config) { c.Server.Auth.DefaultPermissions = []string{"admin"} }, false},
		{"bad level", func(c *config.Config) { c.Logging.Level = "loud" }, false},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}
