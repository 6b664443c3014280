package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for sizesnap.

To load completions:

Bash:
  $ source <(sizesnap completion bash)

  # To load completions for each session, execute once:
  $ sizesnap completion bash > /etc/bash_completion.d/sizesnap

Zsh:
  $ sizesnap completion zsh > "${fpath[1]}/_sizesnap"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ sizesnap completion fish > ~/.config/fish/completions/sizesnap.fish

PowerShell:
  PS> sizesnap completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(out)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		default:
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
	},
}
