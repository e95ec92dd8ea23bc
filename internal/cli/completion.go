package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/subfilter/internal/config"
	"github.com/hupe1980/subfilter/internal/features"
	"github.com/hupe1980/subfilter/internal/segio"
	"github.com/hupe1980/subfilter/pkg/subfilter"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for subfilter.

To load completions:

Bash:
  $ source <(subfilter completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ subfilter completion bash > /etc/bash_completion.d/subfilter

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ subfilter completion zsh > "${fpath[1]}/_subfilter"

Fish:
  $ subfilter completion fish > ~/.config/fish/completions/subfilter.fish

PowerShell:
  PS> subfilter completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> subfilter completion powershell > subfilter.ps1
  # and source this file from your PowerShell profile.
`,
		// Override parent PersistentPreRunE — completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// completeDirections offers every direction under its name and its alias.
func completeDirections(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, 2*len(subfilter.Directions()))
	for _, d := range subfilter.Directions() {
		for _, name := range []string{string(d), d.Alias()} {
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
				out = append(out, name+"\t"+d.Description())
			}
		}
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	formats := segio.Formats()

	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, string(f))
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFeatures offers the built-in features plus those declared in the
// file given with --config. A config file that cannot be read only loses
// its own names.
func completeFeatures(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := features.BuiltinNames()

	if flag := cmd.Flag("config"); flag != nil && flag.Value.String() != "" {
		if custom, err := config.LoadFeatureConfig(flag.Value.String()); err == nil {
			for _, f := range custom.Features {
				names = append(names, f.Name)
			}
		}
	}

	sort.Strings(names)

	out := make([]string, 0, len(names))
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			continue
		}

		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}

	return out, cobra.ShellCompDirectiveNoFileComp
}
