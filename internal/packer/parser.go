package packer

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// maxLineSize bounds a single machine-readable line. Artifact "string"
// values list every region and can get long.
const maxLineSize = 1024 * 1024

// buildsFinished appears in the ui,say line packer prints before listing
// the artifacts of a build.
const buildsFinished = "Builds finished"

// Parser accumulates artifacts from packer machine-readable output.
//
// Lines are fed in order with ParseLine. Artifact attribute lines update the
// in-progress artifact; an "end" line completes it and starts a new one.
// A Parser is not safe for concurrent use.
type Parser struct {
	builderType string
	logger      *slog.Logger

	current   Artifact
	artifacts []Artifact

	// announced is the sum of artifact-count lines seen so far.
	announced int
	// reporting is set once packer starts its final artifact report.
	reporting bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithBuilderType selects the builder type AMIs projects. Defaults to
// BuilderAmazonEBS.
func WithBuilderType(builderType string) Option {
	return func(p *Parser) {
		if builderType != "" {
			p.builderType = builderType
		}
	}
}

// WithLogger sets the logger used for debug output about skipped lines.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates an empty parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		builderType: BuilderAmazonEBS,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseLine consumes one line of output. It never fails: lines that are not
// artifact records, and artifact keys it does not recognize, are skipped.
func (p *Parser) ParseLine(raw string) {
	line, ok := ParseMachineLine(raw)
	if !ok {
		return
	}

	switch line.Type {
	case TypeArtifact:
		p.parseArtifact(line)
	case TypeArtifactCount:
		if n, err := strconv.Atoi(strings.TrimSpace(line.Data[0])); err == nil {
			p.announced += n
			p.reporting = true
		}
	case TypeUI:
		if kind, text, ok := line.UIKind(); ok && kind == UISay && strings.Contains(text, buildsFinished) {
			p.reporting = true
		}
	}
}

// parseArtifact handles "<index>,<key>[,<value>...]".
func (p *Parser) parseArtifact(line Line) {
	if len(line.Data) < 2 {
		p.logger.Debug("skipping short artifact line", "line", line.Raw)
		return
	}

	key := Key(line.Data[1])
	if key == KeyEnd {
		p.emit(line.Target)
		return
	}

	value := Unescape(strings.Join(line.Data[2:], ","))
	if !p.current.set(key, value) {
		p.logger.Debug("ignoring artifact key", "key", key, "target", line.Target)
	}
}

// emit completes the in-progress artifact and resets accumulation.
func (p *Parser) emit(builderType string) {
	p.current.Type = builderType
	p.artifacts = append(p.artifacts, p.current)
	p.current = Artifact{}
	p.logger.Debug("artifact completed", "type", builderType, "count", len(p.artifacts))
}

// ParseReader feeds every line of r to ParseLine.
func (p *Parser) ParseReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		p.ParseLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read packer output: %w", err)
	}
	return nil
}

// Artifacts returns the completed artifacts in completion order.
func (p *Parser) Artifacts() []Artifact {
	out := make([]Artifact, len(p.artifacts))
	for i, a := range p.artifacts {
		out[i] = a.clone()
	}
	return out
}

// Done reports whether packer has started its final report and every
// artifact announced so far by artifact-count lines has completed. A build
// that produced no artifacts is done after the "Builds finished" line. More
// builders may still announce artifacts after Done first turns true.
func (p *Parser) Done() bool {
	return p.reporting && len(p.artifacts) >= p.announced
}

// AMIs returns the region to AMI id mapping from completed artifacts of the
// configured builder type. The result is never nil. If several artifacts
// name the same region, the later one wins.
func (p *Parser) AMIs() (map[string]string, error) {
	amis := make(map[string]string)
	for i, a := range p.artifacts {
		if a.Type != p.builderType {
			continue
		}
		if strings.TrimSpace(a.ID) == "" {
			return nil, &MalformedArtifactError{Index: i, Type: a.Type, Reason: "missing id"}
		}
		for _, item := range strings.Split(a.ID, ",") {
			region, ami, err := splitRegionAMI(item)
			if err != nil {
				return nil, &MalformedArtifactError{Index: i, Type: a.Type, Reason: err.Error()}
			}
			amis[region] = ami
		}
	}
	return amis, nil
}

// splitRegionAMI splits "us-west-1:ami-e098f380".
func splitRegionAMI(item string) (string, string, error) {
	region, ami, ok := strings.Cut(strings.TrimSpace(item), ":")
	if !ok {
		return "", "", fmt.Errorf("id entry %q is not region:ami", item)
	}
	region, ami = strings.TrimSpace(region), strings.TrimSpace(ami)
	if region == "" || ami == "" || strings.Contains(ami, ":") {
		return "", "", fmt.Errorf("id entry %q is not region:ami", item)
	}
	return region, ami, nil
}
