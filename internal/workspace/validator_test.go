package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := NewDefaultConfig("flocker-images")
	cfg.Regions = []string{"us-east-1", "us-gov-west-1"}
	return cfg
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "version", mutate: func(c *Config) { c.Version = "2" }, wantErr: `unsupported config version "2"`},
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }, wantErr: "name is required"},
		{name: "bad name", mutate: func(c *Config) { c.Name = "Flocker_Images" }, wantErr: "invalid name"},
		{name: "template", mutate: func(c *Config) { c.Packer.Template = " " }, wantErr: "packer: template is required"},
		{name: "empty var", mutate: func(c *Config) { c.Packer.Vars = map[string]string{"": "x"} }, wantErr: "vars contains an empty name"},
		{name: "empty var file", mutate: func(c *Config) { c.Packer.VarFiles = []string{""} }, wantErr: "var_files[0]"},
		{name: "bad region", mutate: func(c *Config) { c.Regions = []string{"mars-1"} }, wantErr: `invalid region "mars-1"`},
		{name: "duplicate region", mutate: func(c *Config) { c.Regions = []string{"us-east-1", "us-east-1"} }, wantErr: `duplicate region "us-east-1"`},
		{name: "output path", mutate: func(c *Config) { c.Output.Path = "" }, wantErr: "output: path is required"},
		{name: "output format", mutate: func(c *Config) { c.Output.Format = "toml" }, wantErr: `unsupported format "toml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Name = ""
	cfg.Output.Path = ""

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "output: path is required")
}

func TestConfig_CheckRegions(t *testing.T) {
	cfg := &Config{Regions: []string{"us-west-2", "us-east-1", "us-west-1"}}

	err := cfg.CheckRegions(map[string]string{"us-west-1": "ami-e098f380"})
	require.Error(t, err)
	assert.Equal(t, "no AMI built for region(s): us-east-1, us-west-2", err.Error())

	require.NoError(t, cfg.CheckRegions(map[string]string{
		"us-east-1": "ami-dc4410b6",
		"us-west-1": "ami-e098f380",
		"us-west-2": "ami-8c8f90ed",
		"eu-west-1": "ami-extra",
	}))

	require.NoError(t, (&Config{}).CheckRegions(map[string]string{}))
}
