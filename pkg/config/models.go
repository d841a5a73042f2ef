package config

import "time"

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Store     StoreConfig
	History   HistoryConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Address         string
	Auth            AuthConfig
	ConnectionLimit ConnectionLimitConfig `mapstructure:"connectionLimit"`
	// OriginPatterns lists the browser origins allowed to open a websocket.
	// Empty accepts any origin.
	OriginPatterns  []string      `mapstructure:"originPatterns"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
	// DefaultPermissions applies to tokens without a perms claim.
	DefaultPermissions []string `mapstructure:"defaultPermissions"`
}

type ConnectionLimitConfig struct {
	MaxPerUser int    `mapstructure:"maxPerUser"`
	Mode       string `mapstructure:"mode"` // "reject" or "cycle"
}

type TransportConfig struct {
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	PingInterval time.Duration `mapstructure:"pingInterval"`
	ReadLimit    int64         `mapstructure:"readLimit"`
	SendBuffer   int           `mapstructure:"sendBuffer"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "memory"
	DSN    string `mapstructure:"dsn"`
}

type HistoryConfig struct {
	// Limit caps the records served per history request; 0 serves all.
	Limit int `mapstructure:"limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}
