// -- cmd/resolve.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/descry/api/schemas"
	"github.com/xkilldash9x/descry/internal/browser"
	"github.com/xkilldash9x/descry/internal/config"
	"github.com/xkilldash9x/descry/internal/observability"
	"github.com/xkilldash9x/descry/internal/resolve"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newResolveCmd creates and configures the `resolve` command.
func newResolveCmd() *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve [descriptions...]",
		Short: "Resolves element descriptions against a live page and reports what they matched",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flag-to-viper binding keeps the standard precedence: flags over
			// env vars over config file.
			if err := viper.BindPFlag("browser.backend", cmd.Flags().Lookup("backend")); err != nil {
				return err
			}
			if err := viper.BindPFlag("resolver.default_timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			url, _ := cmd.Flags().GetString("url")
			output, _ := cmd.Flags().GetString("output")
			noWait, _ := cmd.Flags().GetBool("no-wait")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			if concurrency < 1 {
				concurrency = 1
			}

			manager := browser.NewManager(cfg, logger)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := manager.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Error during browser manager shutdown", zap.Error(err))
				}
			}()

			reports := make([]schemas.ResolveReport, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			for i, description := range args {
				i, description := i, description
				g.Go(func() error {
					report, err := resolveOne(gctx, manager, url, description, noWait)
					reports[i] = report
					// Resolution failures land in the report, not in the
					// group; only infrastructure errors abort the run.
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return writeReports(reports, output)
		},
	}

	resolveCmd.Flags().StringP("url", "u", "", "Page URL to resolve against (required)")
	resolveCmd.Flags().StringP("output", "o", "", "Output file path for the JSON report. Defaults to stdout.")
	resolveCmd.Flags().StringP("backend", "b", "", "Browser backend: 'cdp' or 'playwright'. (Overrides config/env)")
	resolveCmd.Flags().DurationP("timeout", "t", 0, "Per-description resolution budget. (Overrides config/env)")
	resolveCmd.Flags().Bool("no-wait", false, "Resolve once without waiting for element readiness")
	resolveCmd.Flags().IntP("concurrency", "j", 2, "Number of descriptions resolved in parallel, each in its own tab")
	_ = resolveCmd.MarkFlagRequired("url")

	return resolveCmd
}

// resolveOne runs one description in its own session. The returned error is
// non-nil only for failures that should abort the whole run.
func resolveOne(ctx context.Context, manager *browser.Manager, url, description string, noWait bool) (schemas.ResolveReport, error) {
	report := schemas.ResolveReport{Description: description}
	started := time.Now()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to create session for %q: %w", description, err)
	}
	defer session.Close()

	resolver := session.Resolver()
	d := resolver.Describe(description)
	report.Normalized = d.Normalized
	report.ElementType = string(d.Type)
	report.Action = string(d.Action)
	for _, m := range d.Modifiers {
		report.Modifiers = append(report.Modifiers, m.String())
	}
	report.Attributes = d.Attributes

	if err := session.Navigate(ctx, url); err != nil {
		return report, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	var cand resolve.Candidate
	if noWait {
		cand, err = resolver.Locate(ctx, description)
	} else {
		cand, err = resolver.LocateWithWait(ctx, description, nil)
	}
	report.Elapsed(time.Since(started))
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Error = err.Error()
		report.ErrorClass = classifyError(err)
		return report, nil
	}

	report.Strategy = cand.Strategy
	info := resolver.ElementInfo(ctx, cand)
	report.Element = &info
	return report, nil
}

func classifyError(err error) string {
	var ambiguous *resolve.AmbiguousError
	var timeout *resolve.TimeoutError
	var notInteractable *resolve.NotInteractableError
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		return "not_found"
	case errors.As(err, &ambiguous):
		return "ambiguous"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &notInteractable):
		return "not_interactable"
	default:
		return "error"
	}
}

func writeReports(reports []schemas.ResolveReport, output string) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", output, err)
	}
	return nil
}
