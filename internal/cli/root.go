package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/llumina/pkg/observability"
)

// Execute builds the command tree and runs it with args. The --verbose flag
// switches the logger to debug level and logs pipeline and cache events before
// any command runs. The logger is attached to the command context for
// loggerFromContext.
//
// Example:
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.Execute(ctx, os.Args[1:]); err != nil {
//	        os.Exit(1)
//	    }
//	}
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := LogInfo
		if c.verbose {
			level = LogDebug
			hooks := observability.NewLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
		}
		c.SetLogLevel(level)
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	return root.ExecuteContext(ctx)
}
