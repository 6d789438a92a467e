// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration.
type Config struct {
	Listen      string `yaml:"listen"`       // operation API address
	AdminListen string `yaml:"admin_listen"` // health/metrics address
	LogLevel    string `yaml:"log_level"`

	Database struct {
		Type string `yaml:"type"` // "badger" or "memory"
		Path string `yaml:"path"`
	} `yaml:"database"`

	Custody struct {
		Asset     string `yaml:"asset"`     // recognized unit of account
		Custodian string `yaml:"custodian"` // this system's external address, hex
	} `yaml:"custody"`
}

// Load reads config from a YAML file, then applies environment
// variable overrides and defaults. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ADSPACE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("ADSPACE_ADMIN_LISTEN"); v != "" {
		cfg.AdminListen = v
	}
	if v := os.Getenv("ADSPACE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ADSPACE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// Defaults
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.AdminListen == "" {
		cfg.AdminListen = ":9090"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "badger"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/adspace"
	}
	if cfg.Custody.Asset == "" {
		cfg.Custody.Asset = "GAS"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Database.Type != "badger" && c.Database.Type != "memory" {
		return fmt.Errorf("database.type must be badger or memory, got %q", c.Database.Type)
	}
	if c.Database.Type == "badger" && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for badger")
	}
	if c.Custody.Asset == "" {
		return fmt.Errorf("custody.asset is required")
	}
	if c.Custody.Custodian == "" {
		return fmt.Errorf("custody.custodian is required")
	}
	return nil
}
