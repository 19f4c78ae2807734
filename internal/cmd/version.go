package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/packer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print amiforge and packer versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "amiforge %s\n", version)

		binary := ""
		if _, cfg, err := loadWorkspace(); err == nil {
			binary = cfg.Packer.Binary
		}
		executor, err := packer.NewExecutor(".", binary, false)
		if err != nil {
			fmt.Fprintf(out, "packer   not found\n")
			return nil
		}
		v, err := executor.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "packer   %s\n", v)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
