package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/agroplan/internal/archive"
	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id [solution]]",
	Short: "List archived runs or export an archived plan",
	Long: `Without arguments, lists the most recent runs recorded in archive.path.
With a run ID, writes the archived plan (solution 1 unless given) to stdout.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Archive.Path == "" {
		return fmt.Errorf("%w: archive.path is not set", planerr.ErrConfiguration)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	ctx := cmd.Context()
	arch, err := archive.Open(ctx, cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer arch.Close()

	printer := ui.New()
	if len(args) == 0 {
		return listRuns(ctx, arch, printer, limit)
	}
	n := 1
	if len(args) == 2 {
		if n, err = strconv.Atoi(args[1]); err != nil || n < 1 {
			return fmt.Errorf("%w: solution must be a positive integer, got %q", planerr.ErrConfiguration, args[1])
		}
	}
	return exportPlan(ctx, arch, cmd.OutOrStdout(), args[0], n, cfg.Separator())
}

func listRuns(ctx context.Context, arch *archive.Archive, printer *ui.Printer, limit int) error {
	entries, err := arch.List(ctx, limit)
	if err != nil {
		return err
	}
	rows := make([]ui.HistoryRow, len(entries))
	for i, e := range entries {
		rows[i] = ui.HistoryRow{
			RunID:     e.RunID,
			Created:   e.Created,
			Command:   e.Command,
			Outcome:   e.Outcome,
			Solutions: e.Solutions,
			Elapsed:   e.Elapsed,
		}
	}
	printer.History(rows)
	return nil
}

func exportPlan(ctx context.Context, arch *archive.Archive, w io.Writer, runID string, n int, sep rune) error {
	p, err := arch.Plan(ctx, runID, n)
	if err != nil {
		return fmt.Errorf("run %s solution %d: %w", runID, n, err)
	}
	return p.Write(w, sep)
}
