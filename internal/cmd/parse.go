package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/manifest"
	"github.com/dosanma1/amiforge/internal/packer"
	"github.com/dosanma1/amiforge/internal/workspace"
)

var (
	parseOutput      string
	parseFormat      string
	parseBuilderType string
	parseArtifacts   bool
	parseBackup      bool
	parseForce       bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <logfile>...",
	Short: "Extract AMIs from saved packer machine-readable logs",
	Long: `Parse one or more logs produced by "packer build -machine-readable" and
print the AMI built in every region.

Files are read in order into a single result, so later builds override
earlier ones for the same region. Use "-" to read standard input.

Examples:
  amiforge parse build.log                      # Print the region table
  packer build -machine-readable t.json | amiforge parse -
  amiforge parse build.log -o amis.json         # Write a manifest
  amiforge parse build.log -o -                 # Print the manifest itself
  amiforge parse build.log --artifacts          # Show every artifact`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", `Write the AMI manifest to this file ("-" for stdout)`)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "", "Manifest format (json|yaml, default from the file extension)")
	parseCmd.Flags().StringVar(&parseBuilderType, "builder-type", packer.BuilderAmazonEBS, "Only collect AMIs from artifacts of this builder")
	parseCmd.Flags().BoolVar(&parseArtifacts, "artifacts", false, "Print every completed artifact instead of the AMI table")
	parseCmd.Flags().BoolVar(&parseBackup, "backup", false, "Keep the previous manifest as <output>.bak")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "Overwrite an existing manifest without asking")
}

func runParse(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	parser := packer.NewParser(
		packer.WithBuilderType(parseBuilderType),
		packer.WithLogger(newLogger(cmd.ErrOrStderr())),
	)
	for _, name := range args {
		if err := parseFile(cmd, parser, name); err != nil {
			return err
		}
	}

	if parseArtifacts {
		printArtifacts(out, parser.Artifacts())
		return nil
	}

	amis, err := parser.AMIs()
	if err != nil {
		return fmt.Errorf("failed to extract AMIs: %w", err)
	}

	format := parseFormat
	if format == "" {
		format = workspace.FormatForPath(parseOutput)
	}

	switch parseOutput {
	case "":
		printAMIs(out, amis)
		return nil
	case "-":
		data, err := manifest.Render(amis, format)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		printAMIs(out, amis)
		return writeManifest(cmd, manifestTarget{
			path:   parseOutput,
			format: format,
			backup: parseBackup,
			force:  parseForce,
		}, amis)
	}
}

// parseFile feeds one log file, or stdin for "-", to parser.
func parseFile(cmd *cobra.Command, parser *packer.Parser, name string) error {
	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := parser.ParseReader(r); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// printArtifacts lists artifacts with their recorded keys.
func printArtifacts(w io.Writer, artifacts []packer.Artifact) {
	if len(artifacts) == 0 {
		fmt.Fprintln(w, "No artifacts found")
		return
	}
	for i, a := range artifacts {
		printArtifact(w, i, a)
	}
}

func printArtifact(w io.Writer, index int, a packer.Artifact) {
	fields := a.Map()
	fmt.Fprintf(w, "#%d %s\n", index, fields[string(packer.KeyType)])
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if k == string(packer.KeyType) || k == string(packer.KeyFile) {
			continue
		}
		fmt.Fprintf(w, "    %-12s %s\n", k, fields[k])
	}
	for _, f := range a.Files {
		fmt.Fprintf(w, "    %-12s %s\n", packer.KeyFile, f)
	}
}
