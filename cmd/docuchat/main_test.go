package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/dream-ai/docuchat/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	out, err := run(t, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.VariantSession, cfg.Server.Variant)

	_, err = run(t, "config", "init", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestMigrate_RejectsUnknownDirection(t *testing.T) {
	_, err := run(t, "migrate", "sideways")
	assert.Error(t, err)

	_, err = run(t, "migrate", "up", "down")
	assert.Error(t, err)
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	cfg := config.Default()
	cfg.Server.Variant = "both"
	require.NoError(t, cfg.Save(path))

	_, err := run(t, "--config", path, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
