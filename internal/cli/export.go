package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/sink"
)

// exportFlags holds the export-only flags that need post-processing.
type exportFlags struct {
	output  string
	day     int
	counter float64
	start   float64
}

// exportCommand creates the export command for count-up animations.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the count-up animation of a day",
		Long: `Export the count-up animation of a day.

The counter eases from the start value to the day's value over the first
second (ease-out quartic) while the image slowly zooms in. Scan-line and
marker accents play for the whole clip unless --no-accents is set.

Formats:
  png   a directory of numbered frames (frame_00000.png, ...) for a video encoder
  apng  a single animated PNG
  gif   a single animated GIF (Plan 9 palette, dithered)

Animated formats render at half resolution by default; see --scale.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("start") {
				opts.Start = &flags.start
			}
			return c.runExport(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, or directory for png (default: llumina-D<day>.<format>)")
	cmd.Flags().IntVarP(&flags.day, "day", "d", 1, "active day (default: last recorded day)")
	cmd.Flags().Float64VarP(&flags.counter, "counter", "c", 0, "counter value for the day (default: recorded count)")
	cmd.Flags().Float64Var(&flags.start, "start", 0, "value the count-up starts from (default: the end value)")
	cmd.Flags().BoolVar(&opts.FromPrevious, "from-previous", false, "count up from the previous day's value")

	cmd.Flags().StringVarP(&opts.Format, "format", "f", sink.FormatPNGSequence, "output format: png, apng, gif")
	cmd.Flags().IntVar(&opts.FPS, "fps", pipeline.DefaultFPS, "frames per second")
	cmd.Flags().DurationVar(&opts.Duration, "duration", pipeline.DefaultDuration, "clip length")
	cmd.Flags().DurationVar(&opts.Ease, "ease", pipeline.DefaultEase, "count-up easing window")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "output scale in (0, 1] (default: 1 for png, 0.5 for apng/gif)")
	cmd.Flags().BoolVar(&opts.NoAccents, "no-accents", false, "disable scan-line and marker accents")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel PNG encoders (default: number of CPUs)")
	lookFlags(cmd, &opts)

	_ = cmd.RegisterFlagCompletionFunc("format", enumCompletion(sink.FormatPNGSequence, sink.FormatAPNG, sink.FormatGIF))

	return cmd
}

// runExport renders the animation into the requested sink.
func (c *CLI) runExport(cmd *cobra.Command, flags exportFlags, opts pipeline.Options) error {
	ctx := cmd.Context()
	scene, err := c.loadScene()
	if err != nil {
		return err
	}
	p := scene.Project

	opts.Day = dayFor(cmd, p, flags.day)
	opts.Counter = counterFor(cmd, p, opts.Day, flags.counter)
	opts.Logger = c.Logger
	if err := opts.ValidateForExport(); err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = exportName(opts.Day, opts.Format)
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := c.export(ctx, runner, scene, opts, output)
	if err != nil {
		return err
	}

	printSuccess("Exported day %d: %s → %s",
		opts.Day,
		StyleNumber.Render(groupDigits(int(res.Start))),
		StyleNumber.Render(groupDigits(int(res.End))))
	printDetail("%d frames at %d fps · %s · %s", res.Frames, opts.FPS, opts.Duration, res.Duration.Round(time.Millisecond))
	printFile(output)
	if opts.Format == sink.FormatPNGSequence {
		fmt.Println()
		printNextStep("Encode with ffmpeg", fmt.Sprintf("ffmpeg -framerate %d -i %s/frame_%%05d.png -pix_fmt yuv420p out.mp4", opts.FPS, output))
	}
	return nil
}

// export drives the runner with a spinner that counts frames.
func (c *CLI) export(ctx context.Context, runner *pipeline.Runner, scene *pipeline.Scene, opts pipeline.Options, output string) (*pipeline.ExportResult, error) {
	spinner := newSpinnerWithContext(ctx, "Building reveal order...")
	spinner.Start()

	comp, err := runner.NewCompositor(ctx, scene, opts)
	if err != nil {
		spinner.StopWithError("Reveal order failed")
		return nil, err
	}
	defer comp.Close()

	s, err := sink.Open(ctx, opts.Format, output, sink.WithWorkers(opts.Workers))
	if err != nil {
		spinner.StopWithError("Export failed")
		return nil, err
	}

	opts.Progress = func(done, total int) {
		spinner.SetMessage(fmt.Sprintf("Rendering frame %d/%d...", done, total))
	}
	prog := newProgress(c.Logger)
	res, err := runner.Export(ctx, comp, scene, opts, s)
	if err != nil {
		spinner.StopWithError("Export failed")
		return nil, fmt.Errorf("export: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Exported %d frames", res.Frames), "format", opts.Format)
	return res, nil
}

// exportName is the default output path for an export of day.
func exportName(day int, format string) string {
	base := fmt.Sprintf("llumina-D%d", day)
	if format == sink.FormatPNGSequence {
		return base + "-frames"
	}
	return base + "." + strings.ToLower(format)
}
