package fleet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/martinsuchenak/labeld/internal/model"
)

// readConfig loads the fleet document. A missing file is an empty configuration.
func readConfig(path string) (*model.FleetConfig, error) {
	cfg := model.NewFleetConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading printer config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return model.NewFleetConfig(), fmt.Errorf("parsing printer config: %w", err)
	}

	if cfg.DisplayNames == nil {
		cfg.DisplayNames = make(map[string]string)
	}
	if cfg.DefaultLabelSizes == nil {
		cfg.DefaultLabelSizes = make(map[string]string)
	}
	if cfg.ManualPrinters == nil {
		cfg.ManualPrinters = make(map[string]model.ManualPrinter)
	}
	return cfg, nil
}

// writeConfig replaces the fleet document via a temp file and rename so a
// crash mid-write leaves the previous snapshot intact
func writeConfig(path string, cfg *model.FleetConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding printer config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".printer_configs-*.json")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing printer config: %w", err)
	}
	return nil
}
