package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dosanma1/amiforge/internal/manifest"
	"github.com/dosanma1/amiforge/internal/ui"
	"github.com/dosanma1/amiforge/internal/workspace"
)

// findWorkspaceRoot finds the workspace root by looking for amiforge.yaml
// in dir and its parents.
func findWorkspaceRoot(dir string) (string, error) {
	for {
		configPath := filepath.Join(dir, workspace.ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in current directory or any parent directory", workspace.ConfigFileName)
}

// configPath resolves the config file from --config or by searching upwards
// from the working directory. The returned root is the directory holding it.
func configPath() (root, path string, err error) {
	if configFile != "" {
		path, err = filepath.Abs(configFile)
		if err != nil {
			return "", "", err
		}
		return filepath.Dir(path), path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err = findWorkspaceRoot(cwd)
	if err != nil {
		return "", "", err
	}
	return root, filepath.Join(root, workspace.ConfigFileName), nil
}

// loadWorkspace loads and validates the workspace configuration.
func loadWorkspace() (string, *workspace.Config, error) {
	root, path, err := configPath()
	if err != nil {
		return "", nil, err
	}

	cfg, err := workspace.LoadConfigFrom(path)
	if err != nil {
		return "", nil, err
	}
	if err := workspace.NewValidator().Validate(cfg); err != nil {
		return "", nil, fmt.Errorf("invalid %s:\n%w", workspace.ConfigFileName, err)
	}
	return root, cfg, nil
}

// newLogger returns a text logger on w. Debug records are only shown with
// --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// manifestTarget is where and how a command writes the AMI manifest.
type manifestTarget struct {
	path   string
	format string
	backup bool
	force  bool
}

// writeManifest writes amis to target.path. Replacing AMIs already recorded
// in an existing manifest asks for confirmation on a terminal unless force
// is set.
func writeManifest(cmd *cobra.Command, target manifestTarget, amis map[string]string) error {
	out := cmd.OutOrStdout()

	prev, err := manifest.Read(target.path)
	if err != nil {
		return err
	}
	changes := manifest.Diff(prev, amis)
	if len(changes) == 0 && len(prev) > 0 {
		fmt.Fprintf(out, "%s %s is up to date\n", ui.IconSuccess, target.path)
		return nil
	}

	if replacesExisting(changes) {
		if !target.force && isTerminal(cmd.InOrStdin()) {
			ok, err := ui.AskOverwrite(cmd.InOrStdin(), out, target.path, changes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, ui.WarningStyle.Render("Manifest left unchanged"))
				return nil
			}
		}
		fmt.Fprintln(out, ui.ChangeList(changes))
	}

	if err := manifest.Write(target.path, target.format, amis, target.backup); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Wrote %d AMI(s) to %s\n", ui.IconPackage, len(amis), target.path)
	return nil
}

// replacesExisting reports whether any change touches a region that already
// had an AMI.
func replacesExisting(changes []manifest.Change) bool {
	for _, c := range changes {
		if c.Old != "" {
			return true
		}
	}
	return false
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printAMIs prints the region table under a title.
func printAMIs(w io.Writer, amis map[string]string) {
	fmt.Fprintln(w, ui.TitleStyle.Render(fmt.Sprintf("%s AMIs (%d)", ui.IconRocket, len(amis))))
	fmt.Fprintln(w, ui.AMITable(amis))
}
