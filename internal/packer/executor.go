package packer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Executor handles Packer command execution.
type Executor struct {
	workDir    string
	packerPath string
	verbose    bool
	logger     *slog.Logger
	stderr     io.Writer
}

// BuildOptions contains options for a packer build.
type BuildOptions struct {
	// Template is the template path, relative to the working directory.
	Template string

	// Vars are passed as -var key=value.
	Vars map[string]string

	// VarFiles are passed as -var-file.
	VarFiles []string

	// Only restricts the build to the named builders.
	Only []string

	// Log receives every raw output line when set.
	Log io.Writer
}

// NewExecutor creates a new Packer executor. binary may be empty, in which
// case packer is looked up on PATH and under ~/.amiforge/bin.
func NewExecutor(workDir, binary string, verbose bool) (*Executor, error) {
	packerPath, err := findPacker(binary)
	if err != nil {
		return nil, err
	}

	return &Executor{
		workDir:    workDir,
		packerPath: packerPath,
		verbose:    verbose,
		logger:     slog.New(slog.DiscardHandler),
		stderr:     os.Stderr,
	}, nil
}

// SetLogger sets the logger for raw packer output in verbose mode.
func (e *Executor) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// SetStderr sets where the build spinner and packer's own stderr go.
func (e *Executor) SetStderr(w io.Writer) {
	e.stderr = w
}

// Build runs `packer build -machine-readable` and feeds every stdout line to
// parser. A non-zero exit is reported as *BuildError carrying the ui error
// lines packer printed.
func (e *Executor) Build(ctx context.Context, opts BuildOptions, parser *Parser) error {
	if opts.Template == "" {
		return fmt.Errorf("template is required for build")
	}

	cmd := exec.CommandContext(ctx, e.packerPath, buildArgs(opts)...)
	cmd.Dir = e.workDir
	cmd.Stderr = e.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to packer output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start packer: %w", err)
	}

	bar := e.newSpinner()
	uiErrors, scanErr := e.stream(stdout, opts.Log, parser, bar)
	_ = bar.Finish()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("packer build cancelled: %w", ctx.Err())
		}
		return &BuildError{Messages: uiErrors, Err: err}
	}
	if scanErr != nil {
		return fmt.Errorf("failed to read packer output: %w", scanErr)
	}

	return nil
}

// stream reads machine-readable output until EOF.
func (e *Executor) stream(r io.Reader, tee io.Writer, parser *Parser, bar *progressbar.ProgressBar) ([]string, error) {
	var uiErrors []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		raw := scanner.Text()
		if tee != nil {
			fmt.Fprintln(tee, raw)
		}
		parser.ParseLine(raw)

		line, ok := ParseMachineLine(raw)
		if !ok {
			continue
		}
		kind, text, ok := line.UIKind()
		if !ok {
			continue
		}
		switch kind {
		case UIError:
			uiErrors = append(uiErrors, text)
		case UISay, UIMessage:
			if e.verbose {
				e.logger.Info(strings.TrimSpace(text), "target", line.Target)
			}
			bar.Describe(truncate(firstLine(text), 60))
		}
		_ = bar.Add(1)
	}

	err := scanner.Err()
	if err != nil {
		// Keep the pipe drained so packer can exit.
		_, _ = io.Copy(io.Discard, r)
	}
	return uiErrors, err
}

func (e *Executor) newSpinner() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Building image"),
		progressbar.OptionSetWriter(e.stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*1000000), // 65ms
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

// buildArgs assembles the packer command line. Vars are sorted so the
// command is reproducible.
func buildArgs(opts BuildOptions) []string {
	args := []string{"build", "-machine-readable", "-color=false"}

	if len(opts.Only) > 0 {
		args = append(args, "-only="+strings.Join(opts.Only, ","))
	}

	keys := make([]string, 0, len(opts.Vars))
	for k := range opts.Vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-var", fmt.Sprintf("%s=%s", k, opts.Vars[k]))
	}

	for _, f := range opts.VarFiles {
		args = append(args, "-var-file", f)
	}

	return append(args, opts.Template)
}

// Version returns the packer version.
func (e *Executor) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, e.packerPath, "version")

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}

// findPacker locates the packer binary.
func findPacker(binary string) (string, error) {
	if binary != "" {
		path, err := exec.LookPath(binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrPackerNotFound, binary)
		}
		return path, nil
	}

	if path, err := exec.LookPath("packer"); err == nil {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		managed := filepath.Join(home, ".amiforge", "bin", "packer")
		if _, err := os.Stat(managed); err == nil {
			return managed, nil
		}
	}

	return "", fmt.Errorf("%w in PATH or ~/.amiforge/bin/", ErrPackerNotFound)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
