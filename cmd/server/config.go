package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string        `env:"ADDR,default=:10000"`
	LogDir            string        `env:"LOG_DIR,default=logs"`
	VoiceDir          string        `env:"VOICE_DIR,default=voices"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	HistoryBackend    string        `env:"HISTORY_BACKEND,default=file"`
	RedisAddr         string        `env:"REDIS_ADDR,default=localhost:6379"`
	MaxFrameBytes     int64         `env:"MAX_FRAME_BYTES,default=10485760"`
	SendBuffer        int           `env:"SEND_BUFFER,default=256"`
	WriteWait         time.Duration `env:"WRITE_WAIT,default=10s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=0s"`
}

// loadConfig reads an optional .env file, then the process environment.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.HistoryBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("HISTORY_BACKEND must be file or redis, got %q", c.HistoryBackend)
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("MAX_FRAME_BYTES must be positive")
	}
	return nil
}
