package cli

import (
	"github.com/example/ciid/internal/config"
	"github.com/spf13/cobra"
)

// runtimeFlagSet tracks shared detection flags before they are converted
// into config overrides.
type runtimeFlagSet struct {
	audience  string
	providers string
	timeout   int
	verbose   bool
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.audience, "audience", "", "Audience to request the token for (overrides config)")
	cmd.Flags().StringVar(&flags.providers, "providers", "", "Comma-separated providers to probe (github,gitlab,circleci,buildkite)")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Overall detection timeout in seconds (0 disables the deadline)")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Emit NDJSON probe events on stderr")
}

func (f runtimeFlagSet) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	if cmd.Flags().Changed("audience") {
		ov.Audience = f.audience
	}

	if cmd.Flags().Changed("providers") {
		ov.Providers = config.ParseProviderList(f.providers)
	}

	if cmd.Flags().Changed("timeout") {
		ov.Timeout = f.timeout
		ov.TimeoutSet = true
	}

	if cmd.Flags().Changed("verbose") {
		ov.Verbose = &f.verbose
	}

	return ov
}
