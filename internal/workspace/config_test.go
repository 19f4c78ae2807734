package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `version: "1"
name: flocker-images
packer:
  template: packer/ubuntu-14.04.json
  vars:
    flocker_branch: master
  var_files: [packer/regions.json]
regions: [us-east-1, us-west-1, us-west-2]
output:
  path: build/amis.yaml
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	dir := writeConfig(t, sampleConfig)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "flocker-images", cfg.Name)
	assert.Equal(t, "packer/ubuntu-14.04.json", cfg.Packer.Template)
	assert.Equal(t, map[string]string{"flocker_branch": "master"}, cfg.Packer.Vars)
	assert.Equal(t, []string{"packer/regions.json"}, cfg.Packer.VarFiles)
	assert.Equal(t, []string{"us-east-1", "us-west-1", "us-west-2"}, cfg.Regions)

	// defaults
	assert.Equal(t, "amazon-ebs", cfg.BuilderType)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, filepath.Join(dir, "build", "amis.yaml"), cfg.OutputPath(dir))

	require.NoError(t, NewValidator().Validate(cfg))
}

func TestLoadConfig_UnknownField(t *testing.T) {
	dir := writeConfig(t, sampleConfig+"extra: true\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := NewDefaultConfig("my-images")
	cfg.Regions = []string{"eu-west-1"}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	require.NoError(t, NewValidator().Validate(loaded))
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("amis.yml"))
	assert.Equal(t, FormatYAML, FormatForPath("out/amis.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("amis.json"))
	assert.Equal(t, FormatJSON, FormatForPath("amis"))
}

func TestConfig_OutputPathAbsolute(t *testing.T) {
	cfg := &Config{Output: OutputConfig{Path: "/var/lib/amis.json"}}
	assert.Equal(t, "/var/lib/amis.json", cfg.OutputPath("/work"))
}
