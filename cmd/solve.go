package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/agroplan/internal/archive"
	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/model"
	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/telemetry"
	"github.com/papapumpkin/agroplan/internal/ui"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Compute a crop plan and write it to stdout",
	Long: `Loads the garden, the crop calendar and the rule definitions, builds the
constraint model and searches for plans. The first plan is written to stdout
(or --output) in the delimited plan format. With --all, successive plans are
enumerated up to solver.max_solutions, each preceded by a "# solution N" line.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().Bool("all", false, "enumerate several solutions")
	solveCmd.Flags().Int("max-solutions", 0, "solutions to enumerate with --all (0 = all)")
	solveCmd.Flags().StringP("output", "o", "", "plan file (default stdout)")
	solveCmd.Flags().Bool("show", false, "also print the plans as tables")
	_ = viper.BindPFlag("solver.max_solutions", solveCmd.Flags().Lookup("max-solutions"))
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	all, _ := cmd.Flags().GetBool("all")
	show, _ := cmd.Flags().GetBool("show")
	limit := 1
	if all {
		limit = cfg.Solver.MaxSolutions
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := setupSignalContext(cmd.Context())
	defer cancel()

	printer := ui.New()
	printer.Banner("solve")
	s, err := openSession(ctx, cfg, printer, "solve")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer s.Close()

	return s.solve(ctx, out, limit, show)
}

// solve enumerates up to limit plans (0 = all), writing each to out, and
// archives the run.
func (s *session) solve(ctx context.Context, out io.Writer, limit int, show bool) error {
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

	var (
		plans   []*plan.Plan
		lastErr error
	)
	step := time.Now()
	for p, err := range m.Solutions(ctx) {
		s.emit(telemetry.KindSolveDone, map[string]any{
			"solution": m.Found(),
			"outcome":  outcome(m.Found(), err),
			"elapsed":  time.Since(step).Seconds(),
		})
		s.printer.Outcome(m.Found(), time.Since(step), err)
		if err != nil {
			lastErr = err
			break
		}
		if len(plans) > 0 {
			fmt.Fprintln(out)
		}
		if limit != 1 {
			fmt.Fprintf(out, "# solution %d\n", m.Found())
		}
		if err := p.Write(out, s.cfg.Separator()); err != nil {
			return err
		}
		if show {
			s.printer.Plan(p)
		}
		plans = append(plans, p)
		if limit > 0 && len(plans) >= limit {
			break
		}
		step = time.Now()
	}
	if lastErr == nil && (limit == 0 || len(plans) < limit) {
		s.printer.Outcome(len(plans), time.Since(step), model.ErrExhausted)
	}

	result := outcome(len(plans), lastErr)
	elapsed := time.Since(start)
	s.emit(telemetry.KindRunDone, map[string]any{
		"outcome":   result,
		"solutions": len(plans),
		"elapsed":   elapsed.Seconds(),
	})
	if err := s.archive(ctx, "solve", result, len(rs), elapsed, plans); err != nil {
		s.log.Warn().Err(err).Msg("run not archived")
	}

	if len(plans) > 0 && (lastErr == nil || errors.Is(lastErr, model.ErrLimitReached)) {
		return nil
	}
	return lastErr
}

func (s *session) archive(ctx context.Context, command, result string, nrules int, elapsed time.Duration, plans []*plan.Plan) error {
	if s.arch == nil {
		return nil
	}
	return s.arch.Record(ctx, archive.Entry{
		RunID:    s.run.ID,
		Command:  command,
		Strategy: s.cfg.Solver.Strategy,
		Outcome:  result,
		Rules:    nrules,
		Elapsed:  elapsed,
		Created:  time.Now(),
		Plans:    plans,
	})
}
