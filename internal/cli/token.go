package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ciid/internal/config"
	"github.com/example/ciid/internal/detect"
	"github.com/example/ciid/internal/events"
	"github.com/spf13/cobra"
)

func newTokenCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "token [audience]",
		Short: "Detect the ambient OIDC token and print it to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd)
			cfg, err := loader.Load(overrides)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			audience := cfg.Audience
			if len(args) == 1 {
				audience = args[0]
			}

			var emitter *events.Emitter
			if cfg.Verbose {
				emitter = events.NewEmitter(cmd.ErrOrStderr())
			}

			ctx := cmd.Context()
			if cfg.TimeoutSeconds > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
				defer cancel()
			}

			detector := detect.NewDetector(detect.Options{
				Events:    emitter,
				Providers: cfg.Providers,
			})

			token, err := detector.DetectCredentials(ctx, audience)
			switch {
			case err == nil:
				// Raw token only, no trailing newline: output is meant
				// to be captured by the calling pipeline step.
				fmt.Fprint(cmd.OutOrStdout(), token)
				return nil
			case errors.Is(err, detect.ErrNotDetected):
				fmt.Fprintln(cmd.OutOrStdout(), "No ambient OIDC tokens found")
				return nil
			default:
				return err
			}
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}
