package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/model"
	"github.com/papapumpkin/agroplan/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the size of the constraint model without solving it",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Verbose = true

	ctx, cancel := setupSignalContext(cmd.Context())
	defer cancel()

	printer := ui.New()
	printer.Banner("stats")
	s, err := openSession(ctx, cfg, printer, "stats")
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer s.Close()

	prob, rs, err := s.load(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	m, err := s.buildModel(prob, rs)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	s.report(prob, rs, m)

	domain := 0
	for _, d := range m.Domains() {
		domain += len(d)
	}
	printer.Info(fmt.Sprintf("largest overlap: %d slots, %d symmetric groups, %d candidate placements",
		prob.Calendar.MaxOverlap(), len(model.SymmetricGroups(prob.Calendar, rs)), domain))
	return nil
}
