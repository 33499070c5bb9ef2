// Package config loads shaderswap.yaml settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Filename is the standard name for shaderswap configuration files
const Filename = "shaderswap.yaml"

// Config holds defaults for every command. Command-line flags win over
// config values.
type Config struct {
	// Project is the Unity project directory, relative to the config file.
	Project   string   `yaml:"project,omitempty"`
	Scope     string   `yaml:"scope,omitempty"`
	Source    string   `yaml:"source,omitempty"`
	Target    string   `yaml:"target,omitempty"`
	Selection []string `yaml:"selection,omitempty"`
	Scenes    []string `yaml:"scenes,omitempty"`
	// Exclude lists directory names skipped while indexing.
	Exclude  []string `yaml:"exclude,omitempty"`
	Format   string   `yaml:"format,omitempty"`
	LogLevel string   `yaml:"log_level,omitempty"`
	DryRun   bool     `yaml:"dry_run,omitempty"`
	// Workers bounds concurrent .meta parsing. Zero means one per CPU.
	Workers int `yaml:"workers,omitempty"`
}

// LoadFrom loads starting from the specified directory, walking up the
// tree. A missing file yields an empty config and an empty path.
func LoadFrom(startDir string) (*Config, string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	currentDir := absDir
	for {
		path := filepath.Join(currentDir, Filename)
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, "", err
			}
			return cfg, path, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return &Config{}, "", nil
		}
		currentDir = parentDir
	}
}

// LoadFile loads from a specific path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveTo saves to a specific path
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ProjectDir returns Project resolved against the directory of the config
// file at path. It returns "" when no project is configured.
func (c *Config) ProjectDir(path string) string {
	if c.Project == "" {
		return ""
	}
	if filepath.IsAbs(c.Project) || path == "" {
		return c.Project
	}
	return filepath.Join(filepath.Dir(path), c.Project)
}
