package cmd

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/packer"
	"github.com/dosanma1/amiforge/internal/ui"
	"github.com/dosanma1/amiforge/internal/workspace"
	"github.com/dosanma1/amiforge/pkg/xos"
)

var (
	buildVars     map[string]string
	buildVarFiles []string
	buildOnly     []string
	buildLogFile  string
	buildForce    bool
	buildNoWrite  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build AMIs with packer and write the AMI manifest",
	Long: `Run "packer build -machine-readable" on the template from amiforge.yaml,
collect the AMI built in every region and write them to the configured
manifest.

Variables from amiforge.yaml are passed as -var; --var entries override
them. Every configured region must end up with an AMI, otherwise the
build is reported as failed and the manifest is left untouched.

Examples:
  amiforge build                              # Build with amiforge.yaml settings
  amiforge build --var flocker_branch=release # Override a template variable
  amiforge build --only amazon-ebs            # Run a single packer builder
  amiforge build --log-file build.log         # Keep packer's raw output
  amiforge build --verbose                    # Stream packer output to stderr`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringToStringVar(&buildVars, "var", nil, "Template variable (key=value), repeatable")
	buildCmd.Flags().StringSliceVar(&buildVarFiles, "var-file", nil, "Additional packer var file, repeatable")
	buildCmd.Flags().StringSliceVar(&buildOnly, "only", nil, "Only run the named packer builders")
	buildCmd.Flags().StringVar(&buildLogFile, "log-file", "", "Also write packer's machine-readable output to this file")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "Overwrite an existing manifest without asking")
	buildCmd.Flags().BoolVar(&buildNoWrite, "no-write", false, "Print the AMIs without writing the manifest")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	root, cfg, err := loadWorkspace()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	executor, err := packer.NewExecutor(root, cfg.Packer.Binary, verbose)
	if err != nil {
		if errors.Is(err, packer.ErrPackerNotFound) {
			return fmt.Errorf("%s %w\n  Install packer from https://developer.hashicorp.com/packer/install or set packer.binary in %s",
				ui.IconError, err, workspace.ConfigFileName)
		}
		return err
	}
	executor.SetLogger(logger)
	executor.SetStderr(cmd.ErrOrStderr())

	opts := packer.BuildOptions{
		Template: cfg.Packer.Template,
		Vars:     maps.Clone(cfg.Packer.Vars),
		VarFiles: append(append([]string(nil), cfg.Packer.VarFiles...), buildVarFiles...),
		Only:     cfg.Packer.Only,
	}
	if opts.Vars == nil {
		opts.Vars = map[string]string{}
	}
	maps.Copy(opts.Vars, buildVars)
	if len(buildOnly) > 0 {
		opts.Only = buildOnly
	}

	if buildLogFile != "" {
		if err := xos.CreateDir(filepath.Dir(buildLogFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.Create(buildLogFile)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		opts.Log = f
	}

	fmt.Fprintf(out, "%s Building %s from %s...\n", ui.IconTool, cfg.Name, cfg.Packer.Template)

	parser := packer.NewParser(
		packer.WithBuilderType(cfg.BuilderType),
		packer.WithLogger(logger),
	)
	if err := executor.Build(ctx, opts, parser); err != nil {
		var buildErr *packer.BuildError
		if errors.As(err, &buildErr) {
			friendly := packer.NewErrorTranslator().Translate(buildErr.Messages)
			return fmt.Errorf("%s Build failed:\n%s", ui.IconError, friendly)
		}
		return err
	}

	amis, err := parser.AMIs()
	if err != nil {
		return fmt.Errorf("failed to extract AMIs: %w", err)
	}
	printAMIs(out, amis)

	if err := cfg.CheckRegions(amis); err != nil {
		return fmt.Errorf("%s %w", ui.IconError, err)
	}

	if buildNoWrite {
		return nil
	}
	if err := writeManifest(cmd, manifestTarget{
		path:   cfg.OutputPath(root),
		format: cfg.Output.Format,
		backup: cfg.Output.Backup,
		force:  buildForce,
	}, amis); err != nil {
		return err
	}

	fmt.Fprintln(out, ui.SuccessStyle.Render(ui.IconSuccess+" Build completed successfully!"))
	return nil
}
