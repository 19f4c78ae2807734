package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosanma1/amiforge/internal/packer"
	"github.com/dosanma1/amiforge/internal/ui"
	"github.com/dosanma1/amiforge/internal/watch"
	"github.com/dosanma1/amiforge/internal/workspace"
)

var (
	watchUntilEnd    bool
	watchOutput      string
	watchFormat      string
	watchBuilderType string
	watchPoll        time.Duration
	watchSettle      time.Duration
	watchForce       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <logfile>",
	Short: "Follow a packer log file and report artifacts as they complete",
	Long: `Follow a machine-readable log written by a packer build running elsewhere,
for example one started with "packer build -machine-readable t.json > build.log".

The file does not have to exist yet. Every completed artifact is printed as
soon as packer reports it. With --until-end the command stops once packer
has printed its "Builds finished" report, every artifact it announced has
completed and the file has been quiet for the --settle period, so that later
builders can still announce theirs. A log that never reaches that report,
such as one from a build that crashed, is followed until interrupted, as is
any log without --until-end. The AMIs collected so far are then printed and, with --output,
written to a manifest.

Examples:
  amiforge watch build.log --until-end
  amiforge watch build.log --until-end -o build/amis.json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchUntilEnd, "until-end", false, "Stop once packer has reported every artifact")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Write the AMI manifest to this file when done")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "Manifest format (json|yaml, default from the file extension)")
	watchCmd.Flags().StringVar(&watchBuilderType, "builder-type", packer.BuilderAmazonEBS, "Only collect AMIs from artifacts of this builder")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 2*time.Second, "Re-read the file at this interval even without file events (0 disables)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 5*time.Second, "With --until-end, how long the log must stay quiet after the last artifact")
	watchCmd.Flags().BoolVar(&watchForce, "force", false, "Overwrite an existing manifest without asking")
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr())

	parser := packer.NewParser(
		packer.WithBuilderType(watchBuilderType),
		packer.WithLogger(logger),
	)

	cfg := watch.DefaultTailerConfig(args[0])
	cfg.Poll = watchPoll
	cfg.OnEvent = func(e watch.EventType) {
		logger.Debug("log file event", "path", args[0], "event", e.String())
	}
	tailer, err := watch.NewTailer(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Watching %s...\n", ui.IconWatch, args[0])

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// settled cancels ctx once the build looks finished and nothing else
	// has been written for watchSettle.
	var settled *time.Timer
	defer func() {
		if settled != nil {
			settled.Stop()
		}
	}()

	seen := 0
	err = tailer.Follow(ctx, func(line string) bool {
		parser.ParseLine(line)

		artifacts := parser.Artifacts()
		for ; seen < len(artifacts); seen++ {
			printArtifact(out, seen, artifacts[seen])
		}

		if !watchUntilEnd {
			return true
		}
		switch {
		case !parser.Done():
			if settled != nil {
				settled.Stop()
				settled = nil
			}
		case settled == nil:
			settled = time.AfterFunc(watchSettle, cancel)
		default:
			settled.Reset(watchSettle)
		}
		return true
	})
	switch {
	case err == nil, errors.Is(err, watch.ErrStopped):
	case errors.Is(err, context.Canceled) && cmd.Context().Err() == nil:
		logger.Debug("packer reported every artifact", "artifacts", seen)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, ui.WarningStyle.Render("Interrupted"))
	default:
		return err
	}

	amis, err := parser.AMIs()
	if err != nil {
		return fmt.Errorf("failed to extract AMIs: %w", err)
	}
	printAMIs(out, amis)

	if watchOutput == "" {
		return nil
	}
	format := watchFormat
	if format == "" {
		format = workspace.FormatForPath(watchOutput)
	}
	return writeManifest(cmd, manifestTarget{
		path:   watchOutput,
		format: format,
		force:  watchForce,
	}, amis)
}
