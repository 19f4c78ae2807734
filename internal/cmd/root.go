package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cmd.version=...".
var version = "dev"

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "amiforge",
	Short: "amiforge - build AMIs with Packer and collect their IDs",
	Long: `amiforge runs Packer in machine-readable mode, follows its output and
collects the AMI built in every region into a manifest that provisioning
tools can read.

It can also parse saved Packer logs, or follow a log file written by a
Packer build started elsewhere.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which stops a running packer build or log watch.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Subcommands register themselves in their own files.
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs and raw packer output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to amiforge.yaml (default: search upwards from the current directory)")
}
