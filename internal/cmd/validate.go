package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/ui"
	"github.com/dosanma1/amiforge/internal/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate amiforge.yaml configuration",
	Long: `Validates amiforge.yaml against its JSON Schema, then checks the values
themselves (names, region codes, output settings).`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	_, path, err := configPath()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Validating %s...\n", ui.IconSearch, path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", workspace.ConfigFileName, err)
	}

	schemaErrs, err := workspace.ValidateSchema(data)
	if err != nil {
		return err
	}
	if len(schemaErrs) > 0 {
		fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("%s %s has schema errors:", ui.IconError, workspace.ConfigFileName)))
		for _, e := range schemaErrs {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(schemaErrs))
	}

	cfg, err := workspace.Parse(data, path)
	if err != nil {
		return err
	}
	if err := workspace.NewValidator().Validate(cfg); err != nil {
		fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("%s %s is invalid:", ui.IconError, workspace.ConfigFileName)))
		return err
	}

	fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf("%s %s is valid!", ui.IconSuccess, workspace.ConfigFileName)))
	return nil
}
