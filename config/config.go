package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr         string        `yaml:"addr"`         // ":8080"
	ReadTimeout  time.Duration `yaml:"readTimeout"`  // "10s"
	WriteTimeout time.Duration `yaml:"writeTimeout"` // "15s"
	IdleTimeout  time.Duration `yaml:"idleTimeout"`  // "60s"
}

type GRPC struct {
	Addr string `yaml:"addr"` // ":9090"
}

type WS struct {
	PingPeriod     time.Duration `yaml:"pingPeriod"`     // "30s"
	WriteWait      time.Duration `yaml:"writeWait"`      // "10s"
	MaxMessageSize int64         `yaml:"maxMessageSize"` // bytes
	SendBuffer     int           `yaml:"sendBuffer"`     // queued frames per connection
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // signaling-relay
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap, empty picks by env
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	WS      WS      `yaml:"ws"`
	Logging Logging `yaml:"logging"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.WS.PingPeriod < 0 || c.WS.WriteWait < 0 {
		return errors.New("ws durations must not be negative")
	}
	if c.WS.MaxMessageSize < 0 {
		return errors.New("ws.maxMessageSize must not be negative")
	}
	if c.WS.SendBuffer < 0 {
		return errors.New("ws.sendBuffer must not be negative")
	}

	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":9090"
	}

	if c.WS.PingPeriod == 0 {
		c.WS.PingPeriod = 30 * time.Second
	}
	if c.WS.WriteWait == 0 {
		c.WS.WriteWait = 10 * time.Second
	}
	if c.WS.MaxMessageSize == 0 {
		c.WS.MaxMessageSize = 64 * 1024
	}
	if c.WS.SendBuffer == 0 {
		c.WS.SendBuffer = 32
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "signaling-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	// empty backend is left to the logger: std in dev, zap otherwise
	return nil
}
