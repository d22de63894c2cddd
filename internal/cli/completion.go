package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for llumina.

To load completions:

Bash:
  $ source <(llumina completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ llumina completion bash > /etc/bash_completion.d/llumina
  # macOS:
  $ llumina completion bash > $(brew --prefix)/etc/bash_completion.d/llumina

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ llumina completion zsh > "${fpath[1]}/_llumina"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ llumina completion fish | source

  # To load completions for each session, execute once:
  $ llumina completion fish > ~/.config/fish/completions/llumina.fish

PowerShell:
  PS> llumina completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> llumina completion powershell > llumina.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions adds value completions for flags shared across
// commands. Per-command enums register their own.
func registerCompletions(root *cobra.Command) {
	_ = root.MarkPersistentFlagFilename("project", "toml")
}

// enumCompletion completes a flag from a fixed set of values.
func enumCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
