package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/triage/errors"
)

// Save writes the configuration to a TOML file, backing up any existing
// file to <path>.bak first. The write itself goes through a temporary
// file and rename so an interrupted save never truncates the config.
func Save(config *Config, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return err
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".triage-config-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp config file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write temp config file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temp config file")
	}

	if err := os.Rename(tmpName, configPath); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to publish config to %s", configPath)
	}

	return nil
}

// createBackup copies the current config to <path>.bak before modification
func createBackup(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil // No file to back up
	}
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(configPath+".bak", content, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config backup")
	}
	return nil
}
