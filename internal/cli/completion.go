package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/pkg/session"
)

// completionCommand generates shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for authornet.

Bash:
  $ source <(authornet completion bash)

Zsh:
  $ authornet completion zsh > "${fpath[1]}/_authornet"

Fish:
  $ authornet completion fish > ~/.config/fish/completions/authornet.fish

PowerShell:
  PS> authornet completion powershell | Out-String | Invoke-Expression

Session ids complete from the configured session store.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeSessionIDs offers the ids of stored sessions, described by name.
func (c *CLI) completeSessionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var ids []string
	err := c.withStore(cmd.Context(), func(store session.Store) error {
		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range list {
			desc := s.Name
			if desc == "" {
				desc = s.GraphHash[:12]
			}
			ids = append(ids, s.ID+"\t"+desc)
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
