package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig holds the settings that are too structured for flags
type FileConfig struct {
	Renderer  RendererConfig  `yaml:"renderer"`
	Transport TransportConfig `yaml:"transport"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Status    StatusConfig    `yaml:"status"`
	History   HistoryConfig   `yaml:"history"`
}

type RendererConfig struct {
	// Command converts an image to a printer command stream; see printing.ExecRenderer
	Command string `yaml:"command"`
	// TempDir holds the decoded images handed to Command; empty uses the OS default
	TempDir string `yaml:"temp_dir"`
}

type TransportConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type DiscoveryConfig struct {
	ServiceTypes []string      `yaml:"service_types"`
	Interval     time.Duration `yaml:"interval"`
	RoundTimeout time.Duration `yaml:"round_timeout"`
	MissedRounds int           `yaml:"missed_rounds"`
}

type StatusConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	SNMP    SNMPConfig    `yaml:"snmp"`
}

type SNMPConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Community string `yaml:"community"`
	Version   string `yaml:"version"`
}

type HistoryConfig struct {
	// RetentionDays prunes older jobs; 0 keeps everything
	RetentionDays int `yaml:"retention_days"`
}

func DefaultFileConfig() *FileConfig {
	return &FileConfig{
		Transport: TransportConfig{
			Timeout: 10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			Interval:     10 * time.Second,
			RoundTimeout: 3 * time.Second,
			MissedRounds: 3,
		},
		Status: StatusConfig{
			Timeout: 2 * time.Second,
			SNMP: SNMPConfig{
				Enabled:   true,
				Community: "public",
				Version:   "2c",
			},
		},
		History: HistoryConfig{
			RetentionDays: 90,
		},
	}
}

// LoadFile reads the YAML configuration. An empty path or missing file
// yields the defaults; a file that does not parse is an error.
func LoadFile(path string) (*FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Discovery.MissedRounds < 1 {
		return nil, fmt.Errorf("discovery.missed_rounds must be at least 1")
	}
	if cfg.History.RetentionDays < 0 {
		return nil, fmt.Errorf("history.retention_days must not be negative")
	}
	return cfg, nil
}
