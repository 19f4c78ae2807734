// Package watch follows a packer log file while another process writes it.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrStopped is returned by Follow when the line handler asked to stop.
var ErrStopped = errors.New("tailer stopped")

// EventType represents what happened to the followed file.
type EventType int

const (
	EventCreated EventType = iota + 1
	EventWritten
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventWritten:
		return "written"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// TailerConfig contains configuration for a Tailer.
type TailerConfig struct {
	// Path is the log file to follow. It does not have to exist yet.
	Path string

	// Poll re-reads the file on this interval even without events, for
	// filesystems where notifications are unreliable. Zero disables it.
	Poll time.Duration

	// OnEvent, if set, is called for every file event before reading.
	OnEvent func(EventType)
}

// DefaultTailerConfig returns default tailer configuration.
func DefaultTailerConfig(path string) *TailerConfig {
	return &TailerConfig{
		Path: path,
		Poll: 2 * time.Second,
	}
}

// LineFunc receives one complete line, without its terminator. Returning
// false stops Follow.
type LineFunc func(line string) bool

// Tailer reads complete lines appended to a file.
type Tailer struct {
	config  *TailerConfig
	watcher *fsnotify.Watcher

	file    *os.File
	pending []byte
}

// NewTailer creates a tailer watching the directory that holds the file, so
// the file can be created or replaced after the tailer starts.
func NewTailer(config *TailerConfig) (*Tailer, error) {
	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", config.Path, err)
	}
	cfg := *config
	cfg.Path = path

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	return &Tailer{
		config:  &cfg,
		watcher: fsWatcher,
	}, nil
}

// Follow delivers every line already in the file and then every line
// appended to it until ctx is done or fn returns false. A trailing partial
// line is held back until its newline arrives.
func (t *Tailer) Follow(ctx context.Context, fn LineFunc) error {
	defer t.close()

	if err := t.drain(fn); err != nil {
		return err
	}

	var tick <-chan time.Time
	if t.config.Poll > 0 {
		ticker := time.NewTicker(t.config.Poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			if err := t.drain(fn); err != nil {
				return err
			}
		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if err := t.handleEvent(event, fn); err != nil {
				return err
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", t.config.Path, err)
		}
	}
}

// handleEvent handles a single fsnotify event for the followed path.
func (t *Tailer) handleEvent(event fsnotify.Event, fn LineFunc) error {
	if filepath.Clean(event.Name) != t.config.Path {
		return nil
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreated
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWritten
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = EventRemoved
	default:
		return nil
	}
	if t.config.OnEvent != nil {
		t.config.OnEvent(eventType)
	}

	switch eventType {
	case EventRemoved:
		// The writer rotated the file; start over when it comes back.
		t.closeFile()
		return nil
	case EventCreated:
		t.closeFile()
	}
	return t.drain(fn)
}

// drain reads everything currently available and emits complete lines.
func (t *Tailer) drain(fn LineFunc) error {
	if t.file == nil {
		f, err := os.Open(t.config.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", t.config.Path, err)
		}
		t.file = f
		t.pending = t.pending[:0]
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			t.pending = append(t.pending, buf[:n]...)
			if !t.emit(fn) {
				return ErrStopped
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", t.config.Path, err)
		}
	}
}

// emit hands complete lines in pending to fn.
func (t *Tailer) emit(fn LineFunc) bool {
	for {
		i := bytes.IndexByte(t.pending, '\n')
		if i < 0 {
			return true
		}
		line := string(bytes.TrimRight(t.pending[:i], "\r"))
		t.pending = t.pending[i+1:]
		if !fn(line) {
			return false
		}
	}
}

func (t *Tailer) closeFile() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

func (t *Tailer) close() {
	t.closeFile()
	t.watcher.Close()
}
