// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(err)

	require.Equal(":8080", cfg.Listen)
	require.Equal(":9090", cfg.AdminListen)
	require.Equal("info", cfg.LogLevel)
	require.Equal("badger", cfg.Database.Type)
	require.Equal("data/adspace", cfg.Database.Path)
	require.Equal("GAS", cfg.Custody.Asset)
}

func TestLoadFile(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte(`
listen: ":7070"
log_level: debug
database:
  type: memory
custody:
  asset: NEO
  custodian: "00112233"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal(":7070", cfg.Listen)
	require.Equal("debug", cfg.LogLevel)
	require.Equal("memory", cfg.Database.Type)
	require.Equal("NEO", cfg.Custody.Asset)
	require.Equal("00112233", cfg.Custody.Custodian)

	// Unset fields still default
	require.Equal(":9090", cfg.AdminListen)
}

func TestLoadEnvOverrides(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte("listen: \":7070\"\n"), 0o600))

	t.Setenv("ADSPACE_LISTEN", ":6060")
	t.Setenv("ADSPACE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(err)
	require.Equal(":6060", cfg.Listen)
	require.Equal("warn", cfg.LogLevel)
}

func TestLoadMalformed(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(os.WriteFile(path, []byte("listen: [oops\n"), 0o600))

	_, err := Load(path)
	require.Error(err)
}

func TestValidate(t *testing.T) {
	require := require.New(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(err)

	// Defaults alone lack a custodian
	require.Error(cfg.Validate())

	cfg.Custody.Custodian = "0011"
	require.NoError(cfg.Validate())

	cfg.Database.Type = "postgres"
	require.Error(cfg.Validate())
}
