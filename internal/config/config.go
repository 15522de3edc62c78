package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	ListenAddr string
	BaseURL    string

	TLSCertPath string
	TLSKeyPath  string

	RedisURL      string
	SessionCookie string

	DisconnectGrace time.Duration
	RoomDestroy     time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:      ":3000",
		BaseURL:         "https://localhost:4000",
		SessionCookie:   "pfsession",
		DisconnectGrace: 30 * time.Second,
		RoomDestroy:     45 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("BASE_URL")); v != "" {
		cfg.BaseURL = v
	}

	cfg.TLSCertPath = strings.TrimSpace(os.Getenv("TLS_CERT"))
	cfg.TLSKeyPath = strings.TrimSpace(os.Getenv("TLS_KEY"))
	if (cfg.TLSCertPath == "") != (cfg.TLSKeyPath == "") {
		return nil, errors.New("TLS_CERT and TLS_KEY must be set together")
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("SESSION_COOKIE")); v != "" {
		cfg.SessionCookie = v
	}

	if v := strings.TrimSpace(os.Getenv("DISCONNECT_GRACE_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DisconnectGrace = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ROOM_DESTROY_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RoomDestroy = time.Duration(n) * time.Second
		}
	}

	return cfg, nil
}

// UseTLS reports whether both certificate paths are configured.
func (c *AppConfig) UseTLS() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}
