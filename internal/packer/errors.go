package packer

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedArtifact is matched by every *MalformedArtifactError.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrPackerNotFound is returned when no packer binary can be located.
	ErrPackerNotFound = errors.New("packer not found")
)

// MalformedArtifactError reports an artifact that lacks the fields needed to
// build the AMI mapping.
type MalformedArtifactError struct {
	// Index is the position of the artifact in completion order.
	Index  int
	Type   string
	Reason string
}

func (e *MalformedArtifactError) Error() string {
	return fmt.Sprintf("malformed artifact #%d (%s): %s", e.Index, e.Type, e.Reason)
}

func (e *MalformedArtifactError) Unwrap() error {
	return ErrMalformedArtifact
}

// BuildError is returned when packer exits unsuccessfully.
type BuildError struct {
	// Messages holds the ui error lines packer printed, unescaped.
	Messages []string
	Err      error
}

func (e *BuildError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("packer build failed: %v", e.Err)
	}
	return fmt.Sprintf("packer build failed: %s", e.Messages[len(e.Messages)-1])
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
