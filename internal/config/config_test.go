package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labeld.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultFileConfig(), cfg)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeFile(t, `
renderer:
  command: brother_ql_create --model {model} --label-size {label} {image}
  temp_dir: /var/tmp/labeld
transport:
  timeout: 30s
discovery:
  service_types: [_ipp._tcp]
  interval: 1m
  missed_rounds: 5
status:
  snmp:
    community: private
    version: "1"
history:
  retention_days: 7
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "brother_ql_create --model {model} --label-size {label} {image}", cfg.Renderer.Command)
	assert.Equal(t, "/var/tmp/labeld", cfg.Renderer.TempDir)
	assert.Equal(t, 30*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, []string{"_ipp._tcp"}, cfg.Discovery.ServiceTypes)
	assert.Equal(t, time.Minute, cfg.Discovery.Interval)
	assert.Equal(t, 5, cfg.Discovery.MissedRounds)
	// Unset keys keep their defaults
	assert.Equal(t, 3*time.Second, cfg.Discovery.RoundTimeout)
	assert.True(t, cfg.Status.SNMP.Enabled)
	assert.Equal(t, "private", cfg.Status.SNMP.Community)
	assert.Equal(t, "1", cfg.Status.SNMP.Version)
	assert.Equal(t, 7, cfg.History.RetentionDays)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", "renderer: [unclosed"},
		{"bad duration", "transport:\n  timeout: soon\n"},
		{"zero missed rounds", "discovery:\n  missed_rounds: 0\n"},
		{"negative retention", "history:\n  retention_days: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestFinishFillsDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/labeld"}
	require.NoError(t, cfg.finish())

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, "62", cfg.DefaultLabelSize)
	assert.Equal(t, filepath.Join("/var/lib/labeld", "printer_configs.json"), cfg.PrinterConfig)
	assert.NotNil(t, cfg.File)
	assert.False(t, cfg.IsAPIAuthEnabled())
	assert.False(t, cfg.IsMCPEnabled())

	cfg = &Config{MCPAuthToken: "secret"}
	require.NoError(t, cfg.finish())
	assert.True(t, cfg.IsMCPEnabled())

	cfg = &Config{ConfigFile: writeFile(t, "renderer: [")}
	assert.Error(t, cfg.finish())
}
