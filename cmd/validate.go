package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/model"
	"github.com/papapumpkin/agroplan/internal/solver"
	"github.com/papapumpkin/agroplan/internal/solver/backtrack"
	"github.com/papapumpkin/agroplan/internal/telemetry"
	"github.com/papapumpkin/agroplan/internal/ui"
	"github.com/papapumpkin/agroplan/internal/watch"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the inputs load and admit a plan",
	Long: `Loads every input file, builds the rules and the constraint model and
searches for one plan. When none exists, looks for the smallest sets of rules
that cannot hold together. With --watch, validates again whenever an input
file changes.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("watch", false, "revalidate when an input file changes")
	validateCmd.Flags().Int("max-subset", 2, "largest rule set examined when infeasible")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	watching, _ := cmd.Flags().GetBool("watch")
	maxSubset, _ := cmd.Flags().GetInt("max-subset")

	ctx, cancel := setupSignalContext(cmd.Context())
	defer cancel()

	printer := ui.New()
	printer.Banner("validate")
	s, err := openSession(ctx, cfg, printer, "validate")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer s.Close()

	err = s.validate(ctx, maxSubset)
	if !watching {
		return err
	}
	return s.watch(ctx, func() { _ = s.validate(ctx, maxSubset) })
}

// validate loads the inputs, builds the model and solves it once. An
// infeasible model is explained by its conflicting rule sets.
func (s *session) validate(ctx context.Context, maxSubset int) error {
	start := time.Now()
	prob, rs, err := s.load(ctx)
	if err != nil {
		s.printer.Error(err.Error())
		return err
	}
	m, err := s.buildModel(prob, rs)
	if err != nil {
		s.printer.Error(err.Error())
		return err
	}
	s.report(prob, rs, m)

	_, err = m.Solve(ctx)
	s.printer.Outcome(m.Found(), time.Since(start), err)
	result := outcome(m.Found(), err)
	s.emit(telemetry.KindRunDone, map[string]any{"outcome": result, "elapsed": time.Since(start).Seconds()})
	if err := s.archive(ctx, "validate", result, len(rs), time.Since(start), nil); err != nil {
		s.log.Warn().Err(err).Msg("run not archived")
	}
	switch {
	case err == nil, errors.Is(err, model.ErrLimitReached):
		return nil
	case !errors.Is(err, model.ErrInfeasible):
		return err
	}

	sets, serr := model.UnsatisfiableSubsets(ctx, prob.Calendar, prob.Garden, rs, maxSubset,
		func() solver.Engine { return backtrack.New() }, s.modelOptions()...)
	if serr != nil {
		s.log.Warn().Err(serr).Msg("conflict search interrupted")
	}
	s.printer.Unsatisfiable(sets)
	return err
}

// watch calls revalidate after every settled change of an input file until
// ctx is canceled.
func (s *session) watch(ctx context.Context, revalidate func()) error {
	w, err := watch.New(s.watched(), 0)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()
	s.printer.Info("watching input files, press Ctrl-C to stop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-w.Changes:
			s.printer.WatchChange(change.Path)
			if change.Removed {
				s.printer.Error(change.Path + " was removed")
				continue
			}
			s.run = s.em.StartRun("validate")
			revalidate()
		}
	}
}
