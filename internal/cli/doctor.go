package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/example/ciid/internal/config"
	"github.com/example/ciid/internal/detect"
	"github.com/example/ciid/internal/toolexec"
	"github.com/spf13/cobra"
)

type doctorCheck struct {
	Name   string
	Status string // "✓", "✗", or "⊘"
	Detail string
	Error  error
}

func newDoctorCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "doctor [audience]",
		Short: "Diagnose the CI environment for ambient OIDC credentials",
		Args:  cobra.MaximumNArgs(1),
		Long: `The doctor subcommand reports what credential detection would see:
- which CI provider presence markers are set
- whether the detected provider exposes its required variables
- whether the CircleCI / Buildkite helper binaries are on PATH
- configuration validity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd)
			cfg, err := loader.Load(overrides)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			audience := cfg.Audience
			if len(args) == 1 {
				audience = args[0]
			}

			checks := runDoctorChecks(&cfg, audience)
			printDoctorReport(cmd, checks)

			for _, check := range checks {
				if check.Error != nil {
					return fmt.Errorf("doctor checks failed")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "\n✓ All checks passed.")
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}

func runDoctorChecks(cfg *config.RuntimeConfig, audience string) []doctorCheck {
	checks := []doctorCheck{checkGoVersion(), checkConfiguration(cfg)}

	markers := map[string]string{
		"github":    "GITHUB_ACTIONS",
		"gitlab":    "GITLAB_CI",
		"circleci":  "CIRCLECI",
		"buildkite": "BUILDKITE",
	}

	detected := false
	for _, provider := range providersUnderTest(cfg) {
		marker, known := markers[provider]
		if !known {
			// Unknown names are already reported by the configuration check.
			continue
		}
		if _, ok := os.LookupEnv(marker); !ok {
			checks = append(checks, doctorCheck{
				Name:   fmt.Sprintf("Marker: %s", marker),
				Status: "⊘",
				Detail: "Not set",
			})
			continue
		}

		detected = true
		checks = append(checks, doctorCheck{
			Name:   fmt.Sprintf("Marker: %s", marker),
			Status: "✓",
			Detail: "Set",
		})
		checks = append(checks, providerChecks(provider, audience)...)
	}

	if !detected {
		checks = append(checks, doctorCheck{
			Name:   "CI environment",
			Status: "⊘",
			Detail: "No provider marker detected; token detection would report nothing found",
		})
	}

	return checks
}

func providersUnderTest(cfg *config.RuntimeConfig) []string {
	if len(cfg.Providers) > 0 {
		return cfg.Providers
	}
	return detect.CanonicalProviders
}

func providerChecks(provider, audience string) []doctorCheck {
	switch provider {
	case "github":
		return []doctorCheck{
			checkEnvVar("ACTIONS_ID_TOKEN_REQUEST_TOKEN", "is the id-token: write workflow permission configured?"),
			checkEnvVar("ACTIONS_ID_TOKEN_REQUEST_URL", "is the id-token: write workflow permission configured?"),
		}
	case "gitlab":
		varName := detect.TokenVariableName(audience)
		return []doctorCheck{
			checkEnvVar(varName, "does the pipeline define a matching id_tokens entry?"),
		}
	case "circleci":
		if audience == "" {
			return []doctorCheck{checkEnvVar("CIRCLE_OIDC_TOKEN_V2", "is this job running with an OIDC context?")}
		}
		return []doctorCheck{checkHelperBinary("circleci")}
	case "buildkite":
		return []doctorCheck{checkHelperBinary("buildkite-agent")}
	default:
		return nil
	}
}

func checkGoVersion() doctorCheck {
	return doctorCheck{
		Name:   "Go Runtime",
		Status: "✓",
		Detail: fmt.Sprintf("Version %s", runtime.Version()),
	}
}

func checkConfiguration(cfg *config.RuntimeConfig) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{
			Name:   "Configuration",
			Status: "✗",
			Detail: "Invalid configuration",
			Error:  err,
		}
	}

	detail := "All providers enabled"
	if len(cfg.Providers) > 0 {
		detail = fmt.Sprintf("%d providers enabled", len(cfg.Providers))
	}

	return doctorCheck{
		Name:   "Configuration",
		Status: "✓",
		Detail: detail,
	}
}

func checkEnvVar(name, hint string) doctorCheck {
	if _, ok := os.LookupEnv(name); !ok {
		return doctorCheck{
			Name:   fmt.Sprintf("Variable: %s", name),
			Status: "✗",
			Detail: hint,
			Error:  fmt.Errorf("%s is not set", name),
		}
	}

	return doctorCheck{
		Name:   fmt.Sprintf("Variable: %s", name),
		Status: "✓",
		Detail: "Set",
	}
}

func checkHelperBinary(name string) doctorCheck {
	runner := toolexec.NewRunner()
	if err := runner.EnsureBinary(name); err != nil {
		return doctorCheck{
			Name:   fmt.Sprintf("Helper: %s", name),
			Status: "✗",
			Detail: "Not found in PATH",
			Error:  err,
		}
	}

	return doctorCheck{
		Name:   fmt.Sprintf("Helper: %s", name),
		Status: "✓",
		Detail: "Available",
	}
}

func printDoctorReport(cmd *cobra.Command, checks []doctorCheck) {
	fmt.Fprintln(cmd.OutOrStdout(), "Running environment diagnostics...")

	for _, check := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-40s %s\n", check.Status, check.Name+":", check.Detail)
		if check.Error != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "   Error: %v\n", check.Error)
		}
	}
}
