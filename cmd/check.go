package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/plan"
	"github.com/papapumpkin/agroplan/internal/telemetry"
	"github.com/papapumpkin/agroplan/internal/ui"
	"github.com/papapumpkin/agroplan/internal/verify"
)

var checkCmd = &cobra.Command{
	Use:   "check <plan>",
	Short: "Check an existing plan against the garden and the rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx, cancel := setupSignalContext(cmd.Context())
	defer cancel()

	printer := ui.New()
	printer.Banner("check")
	s, err := openSession(ctx, cfg, printer, "check")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer s.Close()

	res, err := s.check(ctx, args[0])
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	if !res.Passed {
		return fmt.Errorf("plan %s fails check %q", args[0], res.FirstFailure().Name)
	}
	return nil
}

// check verifies the plan stored at path.
func (s *session) check(ctx context.Context, path string) (*verify.Result, error) {
	start := time.Now()
	prob, rs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := plan.Read(f, s.cfg.Separator())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	res, err := verify.Plan(p, prob, rs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.report(prob, rs, nil)
	s.printer.Verification(res)

	violations := len(res.Violations())
	s.emit(telemetry.KindCheckDone, map[string]any{
		"plan":       path,
		"passed":     res.Passed,
		"violations": violations,
	})
	result := "passed"
	if !res.Passed {
		result = "failed"
	}
	s.emit(telemetry.KindRunDone, map[string]any{"outcome": result, "elapsed": time.Since(start).Seconds()})
	if err := s.archive(ctx, "check", result, len(rs), time.Since(start), nil); err != nil {
		s.log.Warn().Err(err).Msg("run not archived")
	}
	return res, nil
}
