// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// ClientConfig configures the chessduel client binary.
type ClientConfig struct {
	ServerBaseURL string
	ServerWSURL   string

	DisplayName string
	JoinCode    string // empty means create a new session

	MessageOverrideDir   string
	MaxReconnectAttempts int
}

// ServerConfig configures the chessduel-server binary.
type ServerConfig struct {
	ListenAddr string

	RedisURL      string // empty selects the in-memory store
	SessionTTLSec int
}

// LoadClient reads ClientConfig from the environment.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		MaxReconnectAttempts: 10,
	}

	cfg.ServerBaseURL = strings.TrimSpace(os.Getenv("CHESSDUEL_BASE_URL"))
	cfg.ServerWSURL = strings.TrimSpace(os.Getenv("CHESSDUEL_WS_URL"))
	cfg.DisplayName = strings.TrimSpace(os.Getenv("CHESSDUEL_NAME"))
	cfg.JoinCode = strings.TrimSpace(os.Getenv("CHESSDUEL_JOIN_CODE"))
	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("CHESSDUEL_MESSAGE_DIR"))

	if v := strings.TrimSpace(os.Getenv("CHESSDUEL_MAX_RECONNECTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxReconnectAttempts = n
		}
	}

	if cfg.ServerBaseURL == "" {
		return nil, errors.New("CHESSDUEL_BASE_URL is required")
	}
	if cfg.ServerWSURL == "" {
		return nil, errors.New("CHESSDUEL_WS_URL is required")
	}
	if cfg.DisplayName == "" {
		return nil, errors.New("CHESSDUEL_NAME is required")
	}

	return cfg, nil
}

// LoadServer reads ServerConfig from the environment.
func LoadServer() (*ServerConfig, error) {
	cfg := &ServerConfig{
		ListenAddr:    ":8080",
		SessionTTLSec: 3600,
	}

	if v := strings.TrimSpace(os.Getenv("CHESSDUEL_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if v := strings.TrimSpace(os.Getenv("CHESSDUEL_SESSION_TTL")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("CHESSDUEL_SESSION_TTL must be a positive integer of seconds")
		}
		cfg.SessionTTLSec = n
	}

	return cfg, nil
}
