package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/ui"
	"github.com/dosanma1/amiforge/internal/workspace"
)

var (
	initTemplate string
	initRegions  []string
	initOutput   string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create an amiforge.yaml in the current directory",
	Long: `Create a starter amiforge.yaml. The name defaults to the current
directory name and must be kebab-case.

Examples:
  amiforge init
  amiforge init flocker-images --template packer/ubuntu-14.04.json --regions us-east-1,us-west-2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initTemplate, "template", "", "Packer template path")
	initCmd.Flags().StringSliceVar(&initRegions, "regions", nil, "Regions that must receive an AMI")
	initCmd.Flags().StringVar(&initOutput, "output", "", "Manifest path")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing amiforge.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(dir, workspace.ConfigFileName)
	if configFile != "" {
		path = configFile
		dir = filepath.Dir(path)
	}

	name := filepath.Base(dir)
	if len(args) > 0 {
		name = args[0]
	}
	if err := workspace.ValidateName(name); err != nil {
		return fmt.Errorf("invalid name %q: %w", name, err)
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := workspace.NewDefaultConfig(name)
	if initTemplate != "" {
		cfg.Packer.Template = initTemplate
	}
	if initOutput != "" {
		cfg.Output.Path = initOutput
		cfg.Output.Format = workspace.FormatForPath(initOutput)
	}
	cfg.Regions = initRegions

	if err := workspace.NewValidator().Validate(cfg); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s\n", ui.IconSuccess, path)
	return nil
}
