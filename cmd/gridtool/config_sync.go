package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"voxelgrid/internal/config"
)

// writeConfigFromEnv materialises a configuration passed through
// GRID_CONFIG_JSON or GRID_CONFIG_YAML_B64 at cfgPath so it can be loaded
// like any other file. It reports whether a payload was found.
func writeConfigFromEnv(cfgPath string) (bool, error) {
	jsonPayload := os.Getenv("GRID_CONFIG_JSON")
	yamlPayload := os.Getenv("GRID_CONFIG_YAML_B64")

	if jsonPayload == "" && yamlPayload == "" {
		return false, nil
	}
	if cfgPath == "" {
		return false, errors.New("environment provided configuration but no -config path supplied")
	}

	var (
		cfg *config.Config
		err error
	)
	if jsonPayload != "" {
		cfg, err = config.Decode([]byte(jsonPayload), config.FormatJSON)
	} else {
		var data []byte
		data, err = base64.StdEncoding.DecodeString(yamlPayload)
		if err != nil {
			return false, fmt.Errorf("decode config yaml: %w", err)
		}
		cfg, err = config.Decode(data, config.FormatYAML)
	}
	if err != nil {
		return false, fmt.Errorf("environment config: %w", err)
	}

	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create config directory: %w", err)
		}
	}
	var data []byte
	switch config.FormatOf(cfgPath) {
	case config.FormatYAML:
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return false, fmt.Errorf("write config file: %w", err)
	}
	return true, nil
}
