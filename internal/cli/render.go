package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/pipeline"
)

// stillFlags holds the flags shared by render and mask.
type stillFlags struct {
	output  string
	day     int
	counter float64
	refresh bool
}

// renderCommand creates the render command for composed still frames.
func (c *CLI) renderCommand() *cobra.Command {
	var flags stillFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a still frame for a day and counter",
		Long: `Render a still frame for a day and counter.

The frame shows the base photo behind the reveal mask with the day, counter
and percentage overlay. Without --day the last recorded day is used; without
--counter the day's recorded count is used.

Frames without glitch are cached; use --refresh to render anyway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStill(cmd, flags, opts, false)
		},
	}

	stillFlagSet(cmd, &flags)
	lookFlags(cmd, &opts)
	cmd.Flags().Float64Var(&opts.Zoom, "zoom", 1, "zoom factor applied on top of the cover scale (>= 1)")

	return cmd
}

// maskCommand creates the mask command for the bare reveal mask.
func (c *CLI) maskCommand() *cobra.Command {
	var flags stillFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Write the reveal mask as a transparent PNG",
		Long: `Write the reveal mask as a transparent PNG.

Revealed pixels are fully transparent, all others carry the project's mask
color. Overlay the mask on the photo in an editor to reproduce a frame.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStill(cmd, flags, opts, true)
		},
	}

	stillFlagSet(cmd, &flags)

	return cmd
}

func stillFlagSet(cmd *cobra.Command, flags *stillFlags) {
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: llumina-D<day>.png)")
	cmd.Flags().IntVarP(&flags.day, "day", "d", 1, "active day (default: last recorded day)")
	cmd.Flags().Float64VarP(&flags.counter, "counter", "c", 0, "counter value for the day (default: recorded count)")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
}

// runStill renders a frame (or the mask) and writes it.
func (c *CLI) runStill(cmd *cobra.Command, flags stillFlags, opts pipeline.Options, mask bool) error {
	ctx := cmd.Context()
	scene, err := c.loadScene()
	if err != nil {
		return err
	}
	p := scene.Project

	opts.Day = dayFor(cmd, p, flags.day)
	opts.Counter = counterFor(cmd, p, opts.Day, flags.counter)
	opts.Refresh = flags.refresh
	opts.Logger = c.Logger
	if err := opts.ValidateForRender(); err != nil {
		return err
	}

	output := flags.output
	if output == "" {
		output = stillName(opts.Day, mask)
	}

	art, err := c.renderStill(ctx, scene, opts, mask)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	kind := "frame"
	if mask {
		kind = "mask"
	}
	printSuccess("Rendered day %d %s at %s", opts.Day, kind, StyleNumber.Render(groupDigits(int(opts.Display(p)))))
	printStats(art.Stats, art.CacheHit)
	printFile(output)
	return nil
}

// renderStill builds the reveal order and renders one artifact.
func (c *CLI) renderStill(ctx context.Context, scene *pipeline.Scene, opts pipeline.Options, mask bool) (*pipeline.Artifact, error) {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Building reveal order...")
	spinner.Start()

	prog := newProgress(c.Logger)
	comp, err := runner.NewCompositor(ctx, scene, opts)
	if err != nil {
		spinner.StopWithError("Reveal order failed")
		return nil, err
	}
	defer comp.Close()
	c.Logger.Debug("reveal order ready", "duration", prog.elapsed())

	spinner.SetMessage("Rendering...")
	var art *pipeline.Artifact
	if mask {
		art, err = runner.RenderMask(ctx, comp, scene, opts)
	} else {
		art, err = runner.RenderFrame(ctx, comp, scene, opts)
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return nil, fmt.Errorf("render: %w", err)
	}
	spinner.Stop()
	return art, nil
}

// stillName is the default output file for a still of day.
func stillName(day int, mask bool) string {
	if mask {
		return fmt.Sprintf("llumina-D%d-mask.png", day)
	}
	return fmt.Sprintf("llumina-D%d.png", day)
}
