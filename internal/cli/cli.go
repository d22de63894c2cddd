package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/buildinfo"
	"github.com/matzehuels/llumina/pkg/cache"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "llumina"

	// envRedisAddr selects the Redis cache backend when --redis-addr is unset.
	envRedisAddr = "LLUMINA_REDIS_ADDR"

	// redisPrefix namespaces llumina keys in a shared Redis.
	redisPrefix = "llumina:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	projectPath string // --project
	redisAddr   string // --redis-addr
	noCache     bool   // --no-cache
	verbose     bool   // --verbose
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Llumina reveals a photo pixel by pixel as a counter grows",
		Long: `Llumina turns a follower count into a progressive image reveal: an opaque mask
over a photo clears one pseudo-random pixel group per unit counted, in an order
fixed by the project seed.

Projects live in a TOML file (llumina.toml by default). Render stills, export
count-up animations, scrub interactively, or serve live previews over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.projectPath, "project", "p", project.FileName, "project file")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable caching")
	flags.StringVar(&c.redisAddr, "redis-addr", os.Getenv(envRedisAddr), "cache frames in Redis at host:port (env "+envRedisAddr+")")

	// Register all subcommands
	root.AddCommand(c.initCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.maskCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.dayCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	registerCompletions(root)
	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}
	// Frames rendered by another release may differ pixel for pixel.
	keyer := cache.NewScopedKeyer(nil, buildinfo.CacheScope())
	return pipeline.NewRunner(store, keyer, c.Logger), nil
}

// newCache picks the cache backend: none with --no-cache, Redis when an
// address is configured, otherwise the local file cache.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.redisAddr, Prefix: redisPrefix})
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", c.redisAddr, err)
		}
		c.Logger.Debug("using redis cache", "addr", c.redisAddr)
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Project Loading
// =============================================================================

// loadProject reads the --project file.
func (c *CLI) loadProject() (*project.Project, error) {
	p, err := project.Load(c.projectPath)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return p, nil
}

// loadScene reads the project and decodes its base image.
func (c *CLI) loadScene() (*pipeline.Scene, error) {
	p, err := c.loadProject()
	if err != nil {
		return nil, err
	}
	scene, err := pipeline.LoadScene(p)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	c.Logger.Debug("loaded project",
		"name", p.Name,
		"size", fmt.Sprintf("%dx%d", p.Resolution.Width, p.Resolution.Height),
		"days", len(p.Days))
	return scene, nil
}

// saveProject writes p back to the --project file.
func (c *CLI) saveProject(p *project.Project) error {
	if err := project.Save(c.projectPath, p); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/llumina/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// sessionDir returns where preview resume records live (~/.config/llumina/sessions/).
func sessionDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "sessions"), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// lookFlags registers the flags shared by every command that composes frames.
func lookFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "tone filter: none, warm, cool, mono (default: persona)")
	_ = cmd.RegisterFlagCompletionFunc("tone", enumCompletion("none", "warm", "cool", "mono"))
	cmd.Flags().Float64Var(&opts.Glitch, "glitch", 0, "glitch intensity 0..1 (default: persona)")
	cmd.Flags().BoolVar(&opts.NoGlitch, "no-glitch", false, "disable glitch")
	cmd.Flags().BoolVar(&opts.HideText, "hide-text", false, "hide the day, counter and percentage text")
}

// counterFor resolves the counter of day: the explicit flag value when set,
// else the day's recorded count, else zero.
func counterFor(cmd *cobra.Command, p *project.Project, day int, flagValue float64) float64 {
	if cmd.Flags().Changed("counter") {
		return flagValue
	}
	if rec, ok := p.Day(day); ok {
		return rec.Count
	}
	return 0
}

// dayFor resolves the active day: the explicit flag value when set, else the
// last recorded day, else day 1.
func dayFor(cmd *cobra.Command, p *project.Project, flagValue int) int {
	if cmd.Flags().Changed("day") {
		return flagValue
	}
	return max(p.LastDay(), 1)
}
