// Package workspace provides amiforge.yaml configuration management.
package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dosanma1/amiforge/internal/packer"
	"github.com/dosanma1/amiforge/pkg/xos"
)

const ConfigFileName = "amiforge.yaml"

// CurrentVersion is the config file version this build understands.
const CurrentVersion = "1"

// Config represents the workspace configuration.
type Config struct {
	Version     string       `yaml:"version"`
	Name        string       `yaml:"name"`
	Packer      PackerConfig `yaml:"packer"`
	BuilderType string       `yaml:"builder_type,omitempty"`
	Regions     []string     `yaml:"regions,omitempty"`
	Output      OutputConfig `yaml:"output"`
}

// PackerConfig describes how packer is invoked.
type PackerConfig struct {
	// Binary overrides the packer executable. Looked up on PATH if empty.
	Binary   string            `yaml:"binary,omitempty"`
	Template string            `yaml:"template"`
	Vars     map[string]string `yaml:"vars,omitempty"`
	VarFiles []string          `yaml:"var_files,omitempty"`
	Only     []string          `yaml:"only,omitempty"`
}

// OutputConfig controls where the AMI manifest is written.
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format,omitempty"`
	Backup bool   `yaml:"backup,omitempty"`
}

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// NewDefaultConfig creates a new config with sensible defaults.
func NewDefaultConfig(name string) *Config {
	return &Config{
		Version: CurrentVersion,
		Name:    name,
		Packer: PackerConfig{
			Template: "packer/template.json",
		},
		BuilderType: packer.BuilderAmazonEBS,
		Output: OutputConfig{
			Path:   "build/amis.json",
			Format: FormatJSON,
		},
	}
}

// LoadConfig loads the workspace configuration from dir.
func LoadConfig(dir string) (*Config, error) {
	return LoadConfigFrom(filepath.Join(dir, ConfigFileName))
}

// LoadConfigFrom loads the workspace configuration from the specified file.
// Unknown keys are rejected and defaults are applied.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, path)
}

// Parse decodes config data. source is used in error messages.
func Parse(data []byte, source string) (*Config, error) {
	var config Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}

	config.applyDefaults()
	return &config, nil
}

// SaveTo saves the configuration to the specified file atomically.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := xos.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults sets default values for missing fields.
func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = CurrentVersion
	}
	if c.BuilderType == "" {
		c.BuilderType = packer.BuilderAmazonEBS
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatForPath(c.Output.Path)
	}
}

// FormatForPath picks the manifest format from a file extension.
func FormatForPath(path string) string {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// OutputPath resolves the manifest path against the workspace root.
func (c *Config) OutputPath(root string) string {
	if c.Output.Path == "" || filepath.IsAbs(c.Output.Path) {
		return c.Output.Path
	}
	return filepath.Join(root, c.Output.Path)
}
