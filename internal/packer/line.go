// Package packer runs Packer builds and parses their machine-readable output.
//
// Packer's -machine-readable mode prints one record per line:
//
//	<timestamp>,<target>,<type>,<data>...
//
// Artifacts are reported as a run of "artifact" lines sharing an index and
// closed by an "end" key. The Parser folds those lines into Artifact records
// and projects amazon-ebs artifacts into a region to AMI id mapping.
package packer

import (
	"strings"
)

// Message types emitted by packer in machine-readable mode.
const (
	TypeArtifact      = "artifact"
	TypeArtifactCount = "artifact-count"
	TypeUI            = "ui"
)

// UI message kinds, found in the first data field of a "ui" line.
const (
	UISay     = "say"
	UIMessage = "message"
	UIError   = "error"
)

// commaEscape is how packer encodes a literal comma inside a data field.
const commaEscape = "%!(PACKER_COMMA)"

// minFields is timestamp, target, type and at least one data field.
const minFields = 4

// Line is one decoded machine-readable record.
type Line struct {
	Timestamp string
	Target    string
	Type      string
	Data      []string
	Raw       string
}

// ParseMachineLine splits a machine-readable line into its columns.
// Trailing line terminators are dropped. Data fields are left escaped;
// use Unescape on values that may carry commas or newlines.
// The second result is false for lines that are too short to be records.
func ParseMachineLine(raw string) (Line, bool) {
	raw = strings.TrimRight(raw, "\r\n")
	parts := strings.Split(raw, ",")
	if len(parts) < minFields {
		return Line{}, false
	}

	return Line{
		Timestamp: parts[0],
		Target:    parts[1],
		Type:      parts[2],
		Data:      parts[3:],
		Raw:       raw,
	}, true
}

// UIKind returns the ui message kind and its unescaped text.
// ok is false when the line is not a ui line.
func (l Line) UIKind() (kind, text string, ok bool) {
	if l.Type != TypeUI || len(l.Data) < 2 {
		return "", "", false
	}
	return l.Data[0], Unescape(strings.Join(l.Data[1:], ",")), true
}

// Unescape reverses packer's machine-readable escaping.
func Unescape(s string) string {
	if !strings.ContainsAny(s, `%\`) {
		return s
	}
	return unescaper.Replace(s)
}

var unescaper = strings.NewReplacer(
	commaEscape, ",",
	`\n`, "\n",
	`\r`, "\r",
)
