package packer

import (
	"strconv"
	"strings"
)

// Key is a recognized artifact attribute name.
type Key string

const (
	KeyBuilderID  Key = "builder-id"
	KeyID         Key = "id"
	KeyString     Key = "string"
	KeyFilesCount Key = "files-count"
	KeyFile       Key = "file"
	KeyEnd        Key = "end"
)

// KeyType is the attribute name used for the builder type in Artifact.Map.
// Packer never sends it as a key; it comes from the target column.
const KeyType Key = "type"

// BuilderAmazonEBS is the builder type whose artifacts carry regional AMIs.
const BuilderAmazonEBS = "amazon-ebs"

// Artifact is one completed build artifact.
type Artifact struct {
	// Type is the builder type, taken from the target column of the end line.
	Type string `json:"type" yaml:"type"`

	BuilderID  string   `json:"builder_id,omitempty" yaml:"builder_id,omitempty"`
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	String     string   `json:"string,omitempty" yaml:"string,omitempty"`
	FilesCount int      `json:"files_count,omitempty" yaml:"files_count,omitempty"`
	Files      []string `json:"files,omitempty" yaml:"files,omitempty"`
}

// set records value under key. It reports false for keys it does not know,
// leaving the artifact untouched.
func (a *Artifact) set(key Key, value string) bool {
	switch key {
	case KeyBuilderID:
		a.BuilderID = value
	case KeyID:
		a.ID = value
	case KeyString:
		a.String = value
	case KeyFilesCount:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return false
		}
		a.FilesCount = n
	case KeyFile:
		// "<index>,<path>"
		if _, path, ok := strings.Cut(value, ","); ok {
			value = path
		}
		a.Files = append(a.Files, value)
	default:
		return false
	}
	return true
}

// Map returns the artifact as attribute name to value. Zero-valued
// attributes are omitted and files are joined with newlines.
func (a Artifact) Map() map[string]string {
	m := make(map[string]string, 4)
	put := func(k Key, v string) {
		if v != "" {
			m[string(k)] = v
		}
	}
	put(KeyType, a.Type)
	put(KeyBuilderID, a.BuilderID)
	put(KeyID, a.ID)
	put(KeyString, a.String)
	if a.FilesCount > 0 {
		m[string(KeyFilesCount)] = strconv.Itoa(a.FilesCount)
	}
	put(KeyFile, strings.Join(a.Files, "\n"))
	return m
}

// clone returns a deep copy so callers can't alias parser state.
func (a Artifact) clone() Artifact {
	if a.Files != nil {
		a.Files = append([]string(nil), a.Files...)
	}
	return a
}
