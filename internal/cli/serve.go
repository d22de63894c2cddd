package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/project"
	"github.com/matzehuels/llumina/pkg/server"
	"github.com/matzehuels/llumina/pkg/session"
)

// serveCommand creates the serve command for the preview HTTP server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		ttl      time.Duration
		timeout  time.Duration
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live reveal previews over HTTP",
		Long: `Serve live reveal previews over HTTP.

Clients open a session (POST /sessions), move its counter or active day, and
fetch composed frames (GET /sessions/{id}/frame.png), masks and animations.
Committing a day (POST /sessions/{id}/commit) writes it to the project file
unless --read-only is set.

Idle sessions expire after --session-ttl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			scene, err := c.loadScene()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithSessionTTL(ttl),
				server.WithRequestTimeout(timeout),
			}
			if !readOnly {
				opts = append(opts, server.WithSave(func(p *project.Project) error {
					c.Logger.Info("saving project", "path", c.projectPath, "days", len(p.Days))
					return c.saveProject(p)
				}))
			}

			printInfo("Serving %s on %s", StyleHighlight.Render(scene.Project.Name), StyleValue.Render("http://"+addr))
			printDetail("POST /sessions to start · Ctrl+C to stop")
			err = server.New(runner, scene, opts...).Run(ctx, addr)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&ttl, "session-ttl", session.DefaultTTL, "idle time before a session expires")
	cmd.Flags().DurationVar(&timeout, "request-timeout", server.DefaultRequestTimeout, "maximum time per request")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "never write committed days to the project file")

	return cmd
}
