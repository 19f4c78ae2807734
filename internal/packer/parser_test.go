package packer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parserFixture pairs a saved `packer build -machine-readable` log with the
// AMI mapping it should produce.
type parserFixture struct {
	name   string
	input  string
	output map[string]string
}

var (
	outputUSAll = parserFixture{
		name:  "multiple regions",
		input: "PACKER_OUTPUT_US_ALL",
		output: map[string]string{
			"us-east-1": "ami-dc4410b6",
			"us-west-1": "ami-e098f380",
			"us-west-2": "ami-8c8f90ed",
		},
	}
	outputUSWest1 = parserFixture{
		name:   "single region",
		input:  "PACKER_OUTPUT_US_WEST_1",
		output: map[string]string{"us-west-1": "ami-e098f380"},
	}
	// A template with no builders.
	outputNone = parserFixture{
		name:   "no builders",
		input:  "PACKER_OUTPUT_NONE",
		output: map[string]string{},
	}
)

func parseFixture(t *testing.T, name string, opts ...Option) *Parser {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "packer_outputs", name))
	require.NoError(t, err)
	defer f.Close()

	p := NewParser(opts...)
	require.NoError(t, p.ParseReader(f))
	return p
}

func artifactMaps(artifacts []Artifact) []map[string]string {
	out := make([]map[string]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Map())
	}
	return out
}

func TestParser_ArtifactRecordedOnEnd(t *testing.T) {
	p := NewParser()
	p.ParseLine("1450420216,amazon-ebs,artifact,0,builder-id,mitchellh.amazonebs\n")
	assert.Empty(t, p.Artifacts(), "artifact must not be recorded before end")

	p.ParseLine("1450420216,amazon-ebs,artifact,0,end\n")
	assert.Equal(t,
		[]map[string]string{{"type": "amazon-ebs", "builder-id": "mitchellh.amazonebs"}},
		artifactMaps(p.Artifacts()),
	)
}

func TestParser_ArtifactMultiple(t *testing.T) {
	p := NewParser()
	p.ParseLine("1450420216,amazon-ebs,artifact,0,end\n")
	p.ParseLine("1450420216,foobar,artifact,0,end\n")

	assert.Equal(t, []Artifact{{Type: "amazon-ebs"}, {Type: "foobar"}}, p.Artifacts())
}

func TestParser_CurrentResetAfterEnd(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,amazon-ebs,artifact,0,builder-id,mitchellh.amazonebs")
	p.ParseLine("1,amazon-ebs,artifact,0,id,us-east-1:ami-1")
	p.ParseLine("1,amazon-ebs,artifact,0,end")
	p.ParseLine("1,docker,artifact,1,end")

	got := p.Artifacts()
	require.Len(t, got, 2)
	assert.Equal(t, Artifact{Type: "docker"}, got[1])
}

func TestParser_IgnoresNonArtifactLines(t *testing.T) {
	lines := []string{
		"1450420216,,ui,say,==> amazon-ebs: Creating the AMI",
		"1450420216,amazon-ebs,artifact-count,1",
		"1450420216,,ui,error,Build 'amazon-ebs' errored",
		"not a machine readable line",
		"",
		"1,2,3",
		"1450420216,amazon-ebs,artifact,0",
	}

	p := NewParser()
	p.ParseLine("1,amazon-ebs,artifact,0,builder-id,mitchellh.amazonebs")
	before := p.current

	for _, line := range lines {
		p.ParseLine(line)
	}

	assert.Equal(t, before, p.current)
	assert.Empty(t, p.Artifacts())
}

func TestParser_IgnoresUnknownKeys(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,amazon-ebs,artifact,0,builder-id,mitchellh.amazonebs")
	p.ParseLine("1,amazon-ebs,artifact,0,nonsense,value")
	p.ParseLine("1,amazon-ebs,artifact,0,files-count,many")
	p.ParseLine("1,amazon-ebs,artifact,0,end")

	assert.Equal(t, []Artifact{{Type: "amazon-ebs", BuilderID: "mitchellh.amazonebs"}}, p.Artifacts())
}

func TestParser_ValueRejoinedAndUnescaped(t *testing.T) {
	p := NewParser()
	p.ParseLine(`1,amazon-ebs,artifact,0,string,AMIs were created:\n\nus-east-1: ami-1,extra`)
	p.ParseLine("1,file,artifact,0,files-count,2")
	p.ParseLine("1,file,artifact,0,file,0,/tmp/a.txt")
	p.ParseLine("1,file,artifact,0,file,1,/tmp/b%!(PACKER_COMMA)c.txt")
	p.ParseLine("1,file,artifact,0,end")

	got := p.Artifacts()
	require.Len(t, got, 1)
	assert.Equal(t, "AMIs were created:\n\nus-east-1: ami-1,extra", got[0].String)
	assert.Equal(t, 2, got[0].FilesCount)
	assert.Equal(t, []string{"/tmp/a.txt", "/tmp/b,c.txt"}, got[0].Files)
}

func TestParser_ArtifactsReturnsCopy(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,file,artifact,0,file,0,/tmp/a.txt")
	p.ParseLine("1,file,artifact,0,end")

	got := p.Artifacts()
	got[0].Files[0] = "changed"
	got[0].Type = "changed"

	assert.Equal(t, []Artifact{{Type: "file", Files: []string{"/tmp/a.txt"}}}, p.Artifacts())
}

func TestParser_AMIs(t *testing.T) {
	for _, fx := range []parserFixture{outputNone, outputUSWest1, outputUSAll} {
		t.Run(fx.name, func(t *testing.T) {
			p := parseFixture(t, fx.input)
			amis, err := p.AMIs()
			require.NoError(t, err)
			assert.Equal(t, fx.output, amis)
		})
	}
}

func TestParser_AMIsEmptyParser(t *testing.T) {
	amis, err := NewParser().AMIs()
	require.NoError(t, err)
	assert.NotNil(t, amis)
	assert.Empty(t, amis)
}

func TestParser_AMIsIdempotent(t *testing.T) {
	p := parseFixture(t, outputUSAll.input)
	before := p.Artifacts()

	first, err := p.AMIs()
	require.NoError(t, err)
	second, err := p.AMIs()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, p.Artifacts())
}

func TestParser_Deterministic(t *testing.T) {
	a := parseFixture(t, outputUSAll.input)
	b := parseFixture(t, outputUSAll.input)

	assert.Equal(t, a.Artifacts(), b.Artifacts())
	amisA, errA := a.AMIs()
	amisB, errB := b.AMIs()
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, amisA, amisB)
}

func TestParser_AMIsFiltersBuilderType(t *testing.T) {
	p := parseFixture(t, "PACKER_OUTPUT_MIXED")
	assert.Len(t, p.Artifacts(), 3)

	amis, err := p.AMIs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"eu-west-1": "ami-0a1b2c3d"}, amis)
}

func TestParser_AMIsCustomBuilderType(t *testing.T) {
	p := NewParser(WithBuilderType("amazon-instance"))
	p.ParseLine("1,amazon-ebs,artifact,0,id,us-east-1:ami-1")
	p.ParseLine("1,amazon-ebs,artifact,0,end")
	p.ParseLine("1,amazon-instance,artifact,1,id,us-east-1:ami-2")
	p.ParseLine("1,amazon-instance,artifact,1,end")

	amis, err := p.AMIs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"us-east-1": "ami-2"}, amis)
}

func TestParser_AMIsMergesArtifacts(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,amazon-ebs,artifact,0,id,us-east-1:ami-1%!(PACKER_COMMA)us-west-2:ami-2")
	p.ParseLine("1,amazon-ebs,artifact,0,end")
	p.ParseLine("1,amazon-ebs,artifact,1,id,us-west-2:ami-3")
	p.ParseLine("1,amazon-ebs,artifact,1,end")

	amis, err := p.AMIs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"us-east-1": "ami-1", "us-west-2": "ami-3"}, amis)
}

func TestParser_AMIsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		index  int
		reason string
	}{
		{
			name:   "missing id",
			lines:  []string{"1,amazon-ebs,artifact,0,builder-id,mitchellh.amazonebs", "1,amazon-ebs,artifact,0,end"},
			reason: "missing id",
		},
		{
			name:   "no region separator",
			lines:  []string{"1,amazon-ebs,artifact,0,id,ami-1", "1,amazon-ebs,artifact,0,end"},
			reason: `"ami-1"`,
		},
		{
			name: "empty region on second artifact",
			lines: []string{
				"1,amazon-ebs,artifact,0,id,us-east-1:ami-1", "1,amazon-ebs,artifact,0,end",
				"1,amazon-ebs,artifact,1,id,:ami-2", "1,amazon-ebs,artifact,1,end",
			},
			index:  1,
			reason: `":ami-2"`,
		},
		{
			name:   "trailing separator",
			lines:  []string{"1,amazon-ebs,artifact,0,id,us-east-1:ami-1%!(PACKER_COMMA)", "1,amazon-ebs,artifact,0,end"},
			reason: `""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			for _, line := range tt.lines {
				p.ParseLine(line)
			}

			amis, err := p.AMIs()
			require.Error(t, err)
			assert.Nil(t, amis)
			assert.True(t, errors.Is(err, ErrMalformedArtifact))

			var malformed *MalformedArtifactError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.index, malformed.Index)
			assert.Equal(t, BuilderAmazonEBS, malformed.Type)
			assert.Contains(t, malformed.Reason, tt.reason)
		})
	}
}

func TestParser_MalformedOtherTypeIgnored(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,docker,artifact,0,end")

	amis, err := p.AMIs()
	require.NoError(t, err)
	assert.Empty(t, amis)
}

func TestParser_Done(t *testing.T) {
	p := NewParser()
	assert.False(t, p.Done())

	p.ParseLine("1,amazon-ebs,artifact-count,1")
	p.ParseLine("1,docker,artifact-count,1")
	assert.False(t, p.Done())

	p.ParseLine("1,amazon-ebs,artifact,0,end")
	assert.False(t, p.Done())
	p.ParseLine("1,docker,artifact,0,end")
	assert.True(t, p.Done())
}

func TestParser_DoneWithoutArtifacts(t *testing.T) {
	p := parseFixture(t, outputNone.input)
	assert.True(t, p.Done())
	assert.Empty(t, p.Artifacts())
}

func TestParser_DoneAfterBuildsFinished(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,,ui,say,\\n==> amazon-ebs: Creating the AMI: flocker-1.8.0")
	assert.False(t, p.Done())

	p.ParseLine("1,,ui,say,\\n==> Builds finished. The artifacts of successful builds are:")
	assert.True(t, p.Done())

	p.ParseLine("1,amazon-ebs,artifact-count,1")
	assert.False(t, p.Done())
	p.ParseLine("1,amazon-ebs,artifact,0,id,us-west-1:ami-e098f380")
	p.ParseLine("1,amazon-ebs,artifact,0,end")
	assert.True(t, p.Done())
}

func TestParser_TypeTakenFromTargetColumn(t *testing.T) {
	p := NewParser()
	p.ParseLine("1,amazon-ebs,artifact,0,type,docker")
	p.ParseLine("1,amazon-ebs,artifact,0,id,us-west-1:ami-e098f380")
	p.ParseLine("1,amazon-ebs,artifact,0,end")

	artifacts := p.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, BuilderAmazonEBS, artifacts[0].Type)
	assert.Equal(t, map[string]string{
		"type": "amazon-ebs",
		"id":   "us-west-1:ami-e098f380",
	}, artifacts[0].Map())

	amis, err := p.AMIs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"us-west-1": "ami-e098f380"}, amis)
}

func TestParser_ParseReaderLongLine(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	input := "1,amazon-ebs,artifact,0,string," + long + "\n1,amazon-ebs,artifact,0,end\n"

	p := NewParser()
	require.NoError(t, p.ParseReader(strings.NewReader(input)))
	require.Len(t, p.Artifacts(), 1)
	assert.Len(t, p.Artifacts()[0].String, len(long))
}
