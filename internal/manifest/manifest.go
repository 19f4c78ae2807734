// Package manifest reads and writes the region to AMI id mapping consumed by
// provisioning.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dosanma1/amiforge/internal/workspace"
	"github.com/dosanma1/amiforge/pkg/xos"
)

// Render encodes amis in the given format. Keys are emitted in sorted order
// by both encoders.
func Render(amis map[string]string, format string) ([]byte, error) {
	if amis == nil {
		amis = map[string]string{}
	}

	switch format {
	case workspace.FormatJSON:
		data, err := json.MarshalIndent(amis, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case workspace.FormatYAML:
		return yaml.Marshal(amis)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
}

// Write renders amis and writes them to path atomically, creating parent
// directories. With backup set, an existing manifest is kept as path.bak.
func Write(path, format string, amis map[string]string, backup bool) error {
	data, err := Render(amis, format)
	if err != nil {
		return err
	}

	if err := xos.CreateDir(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	write := xos.WriteFile
	if backup {
		write = xos.WriteFileWithBackup
	}
	if err := write(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Read loads a manifest written by Write in either format. A missing file
// yields an empty mapping.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	// YAML is a superset of JSON, so one decoder reads both formats
	// regardless of the file extension.
	amis := map[string]string{}
	if err := yaml.Unmarshal(data, &amis); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return amis, nil
}

// Change is one region whose AMI differs between two manifests. Old or New
// is empty when the region was added or removed.
type Change struct {
	Region string
	Old    string
	New    string
}

// Diff lists regions whose AMI changed, sorted by region.
func Diff(prev, next map[string]string) []Change {
	var changes []Change
	for region, ami := range next {
		if prev[region] != ami {
			changes = append(changes, Change{Region: region, Old: prev[region], New: ami})
		}
	}
	for region, ami := range prev {
		if _, ok := next[region]; !ok {
			changes = append(changes, Change{Region: region, Old: ami})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Region < changes[j].Region })
	return changes
}

// Regions returns the keys of amis in sorted order.
func Regions(amis map[string]string) []string {
	regions := make([]string, 0, len(amis))
	for r := range amis {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
