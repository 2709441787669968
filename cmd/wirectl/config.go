package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/ethoswire/internal/auth"
	"github.com/danmuck/ethoswire/internal/gateway"
)

const defaultAdminAddr = "127.0.0.1:3848"

type fileConfig struct {
	Addr           string   `toml:"addr"`
	AdminAddr      string   `toml:"admin_addr"`
	ReadBufferSize int      `toml:"read_buffer_size"`
	ReadTimeout    string   `toml:"read_timeout"`
	WriteTimeout   string   `toml:"write_timeout"`
	MaxConnections int      `toml:"max_connections"`
	CORSOrigins    []string `toml:"cors_origins"`
	Keys           []string `toml:"keys"`
}

type serviceConfig struct {
	Gateway     gateway.Config
	AdminAddr   string
	CORSOrigins []string
	// Keys enables key validation when non-empty.
	Keys        auth.KeySet
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		Gateway:   gateway.DefaultConfig(),
		AdminAddr: defaultAdminAddr,
	}
}

func loadServiceConfig(path string) (serviceConfig, error) {
	cfg := defaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serviceConfig{}, fmt.Errorf("load wirectl config: %w", err)
	}

	if meta.IsDefined("addr") {
		if addr := strings.TrimSpace(raw.Addr); addr != "" {
			cfg.Gateway.Addr = addr
		}
	}

	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}

	if meta.IsDefined("read_buffer_size") {
		cfg.Gateway.ReadBufferSize = raw.ReadBufferSize
	}

	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.Gateway.ReadTimeout = d
	}

	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return serviceConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Gateway.WriteTimeout = d
	}

	if meta.IsDefined("max_connections") {
		cfg.Gateway.MaxConnections = raw.MaxConnections
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}

	if meta.IsDefined("keys") {
		keys, err := auth.ParseKeySet(normalizeList(raw.Keys))
		if err != nil {
			return serviceConfig{}, err
		}
		cfg.Keys = keys
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return serviceConfig{}, err
	}
	return cfg, nil
}

// normalizeList trims entries and drops empty ones.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
