// Package cli implements the previzi command line: projections, analysis
// and exports straight from a configured backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maicon-romano/previzi/internal/backend"
	"github.com/maicon-romano/previzi/internal/cache"
	"github.com/maicon-romano/previzi/internal/config"
	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/scenario"
	"github.com/maicon-romano/previzi/internal/services"
)

var (
	flagUser            string
	flagMonths          int
	flagStartingBalance string
	flagScenario        string
)

var rootCmd = &cobra.Command{
	Use:   "previzi",
	Short: "Recurring-transaction projections and financial analysis",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id to operate on (required)")
	rootCmd.PersistentFlags().IntVar(&flagMonths, "months", 0, "projection horizon in months (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagStartingBalance, "starting-balance", "", "starting balance as a decimal, e.g. 1500.00")
	rootCmd.PersistentFlags().StringVar(&flagScenario, "scenario", "", "path to a YAML scenario file with simulated items")
}

// session bundles everything a command needs against one backend.
type session struct {
	cfg       *config.Config
	projector *services.Projector
	cleanup   backend.CleanupFunc
}

func (s *session) close() {
	if s.cleanup != nil {
		_ = s.cleanup()
	}
}

func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(nil).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	series := services.NewMaterializer(result.Store, nil)
	results := cache.NewLRUCache[*services.ProjectionResult](cfg.CacheSize, cfg.CacheTTL)
	return &session{
		cfg:       cfg,
		projector: services.NewProjector(result.Store, series, results),
		cleanup:   result.Cleanup,
	}, nil
}

// buildRequest folds flags and an optional scenario file into a projection
// request. Flags win over scenario file defaults.
func buildRequest(cfg *config.Config) (services.ProjectionRequest, error) {
	req := services.ProjectionRequest{PeriodMonths: cfg.DefaultHorizonMonths}

	if flagScenario != "" {
		file, items, err := scenario.Load(flagScenario)
		if err != nil {
			return req, err
		}
		req.Simulations = items
		if file.PeriodMonths > 0 {
			req.PeriodMonths = file.PeriodMonths
		}
		if file.StartingBalance != "" {
			cents, err := core.ParseDecimalToCents(file.StartingBalance)
			if err != nil {
				return req, fmt.Errorf("scenario starting balance: %w", err)
			}
			req.StartingBalance.Cents = cents
		}
	}

	if flagMonths > 0 {
		req.PeriodMonths = flagMonths
	}
	if flagStartingBalance != "" {
		cents, err := core.ParseDecimalToCents(flagStartingBalance)
		if err != nil {
			return req, fmt.Errorf("starting balance: %w", err)
		}
		req.StartingBalance.Cents = cents
	}
	return req, nil
}

func runProjection(ctx context.Context) (*session, *services.ProjectionResult, error) {
	if flagUser == "" {
		return nil, nil, fmt.Errorf("--user is required")
	}

	sess, err := openSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	req, err := buildRequest(sess.cfg)
	if err != nil {
		sess.close()
		return nil, nil, err
	}

	result, err := sess.projector.Project(ctx, flagUser, req, time.Now())
	if err != nil {
		sess.close()
		return nil, nil, err
	}
	return sess, result, nil
}
