// Package config provides configuration loading for the studio server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Studio is the structure of the studio.yaml configuration file. Command line
// flags and environment variables override file values.
type Studio struct {
	Port          int    `yaml:"port"`
	EngineURL     string `yaml:"engine_url"`
	LogLevel      string `yaml:"log_level"`
	EnableTracing bool   `yaml:"enable_tracing"`
}

// LoadStudio loads studio configuration from a YAML file.
func LoadStudio(filepath string) (Studio, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return Studio{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var studio Studio
	if err := yaml.Unmarshal(data, &studio); err != nil {
		return Studio{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if studio.EngineURL == "" {
		return Studio{}, fmt.Errorf("config file %s: engine_url is required", filepath)
	}

	if studio.Port == 0 {
		studio.Port = 9090
	}

	if studio.LogLevel == "" {
		studio.LogLevel = "info"
	}

	return studio, nil
}
