package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/agroplan/internal/archive"
	"github.com/papapumpkin/agroplan/internal/config"
	"github.com/papapumpkin/agroplan/internal/dataset"
	"github.com/papapumpkin/agroplan/internal/logging"
	"github.com/papapumpkin/agroplan/internal/model"
	"github.com/papapumpkin/agroplan/internal/rules"
	"github.com/papapumpkin/agroplan/internal/ruleset"
	"github.com/papapumpkin/agroplan/internal/solver/backtrack"
	"github.com/papapumpkin/agroplan/internal/telemetry"
	"github.com/papapumpkin/agroplan/internal/ui"
)

// session carries what every planning command needs: configuration,
// output, logger and the optional telemetry and archive sinks.
type session struct {
	cfg     config.Config
	printer *ui.Printer
	log     zerolog.Logger
	em      *telemetry.Emitter
	run     *telemetry.Run
	arch    *archive.Archive
}

// openSession validates the configuration and opens the sinks it names.
func openSession(ctx context.Context, cfg config.Config, printer *ui.Printer, command string) (*session, error) {
	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, printer: printer, log: log}

	if cfg.Telemetry.Path != "" {
		if s.em, err = telemetry.NewEmitter(cfg.Telemetry.Path); err != nil {
			return nil, err
		}
	}
	if cfg.Archive.Path != "" {
		if s.arch, err = archive.Open(ctx, cfg.Archive.Path); err != nil {
			_ = s.em.Close()
			return nil, err
		}
	}
	s.run = s.em.StartRun(command)
	s.log = s.log.With().Str("run", s.run.ID).Logger()
	s.emit(telemetry.KindRunStart, map[string]any{"strategy": cfg.Solver.Strategy})
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	if s.arch != nil {
		errs = append(errs, s.arch.Close())
	}
	errs = append(errs, s.em.Close())
	return errors.Join(errs...)
}

// emit records a telemetry event; failures are logged, never fatal.
func (s *session) emit(kind string, data any) {
	if err := s.run.Emit(kind, data); err != nil {
		s.log.Warn().Err(err).Str("kind", kind).Msg("telemetry event dropped")
	}
}

func (s *session) paths() dataset.Paths {
	return dataset.Paths{
		Beds:      s.cfg.Data.Beds,
		Calendar:  s.cfg.Data.Calendar,
		CropTypes: s.cfg.Data.CropTypes,
		PastPlan:  s.cfg.Data.PastPlan,
	}
}

// watched returns every input file of the session.
func (s *session) watched() []string {
	files := s.paths().Files()
	if s.cfg.Data.Rules != "" {
		files = append(files, s.cfg.Data.Rules)
	}
	return files
}

// load reads the datasets and builds the declared rules.
func (s *session) load(ctx context.Context) (rules.Problem, []rules.Rule, error) {
	prob, err := dataset.LoadProblem(ctx, s.paths())
	if err != nil {
		return rules.Problem{}, nil, err
	}
	s.log.Debug().
		Int("slots", prob.Calendar.Len()).
		Int("future", prob.Calendar.FutureCount()).
		Int("beds", prob.Garden.Len()).
		Msg("problem loaded")

	if s.cfg.Data.Rules == "" {
		return prob, nil, nil
	}
	doc, err := ruleset.Load(s.cfg.Data.Rules)
	if err != nil {
		return rules.Problem{}, nil, err
	}
	opts, err := s.cfg.RuleOptions()
	if err != nil {
		return rules.Problem{}, nil, err
	}
	rs, err := doc.Build(prob, opts)
	if err != nil {
		return rules.Problem{}, nil, fmt.Errorf("%s: %w", s.cfg.Data.Rules, err)
	}
	return prob, rs, nil
}

// modelOptions returns the options every model of the session is built
// with.
func (s *session) modelOptions() []model.Option {
	return []model.Option{
		model.WithLogger(s.log),
		model.WithStrategy(s.cfg.Solver.Strategy),
		model.WithLimits(s.cfg.SolverOptions()),
		model.WithNarrowing(s.cfg.Compile.NarrowDomains),
	}
}

// buildModel creates and initialises a model over prob with rs.
func (s *session) buildModel(prob rules.Problem, rs []rules.Rule) (*model.Model, error) {
	m, err := model.New(prob.Calendar, prob.Garden, backtrack.New(), s.modelOptions()...)
	if err != nil {
		return nil, err
	}
	if err := m.Init(rs...); err != nil {
		return nil, err
	}
	constraints := 0
	for _, st := range m.Stats() {
		constraints += st.Constraints
	}
	s.emit(telemetry.KindModelBuilt, map[string]any{
		"slots":       prob.Calendar.Len(),
		"beds":        prob.Garden.Len(),
		"rules":       len(rs),
		"constraints": constraints,
	})
	return m, nil
}

// report prints the loaded problem and, when verbose, the model statistics.
func (s *session) report(prob rules.Problem, rs []rules.Rule, m *model.Model) {
	s.printer.Problem(prob.Calendar.Len(), prob.Calendar.FutureCount(), prob.Garden.Len(), len(rs))
	if s.cfg.Verbose && m != nil {
		s.printer.ModelStats(m.Stats())
	}
}

// outcome names the result of a run for telemetry and the archive.
func outcome(found int, err error) string {
	switch {
	case errors.Is(err, model.ErrInfeasible):
		return "infeasible"
	case errors.Is(err, model.ErrLimitReached) && found == 0:
		return "unknown"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case err != nil && !errors.Is(err, model.ErrLimitReached):
		return "error"
	}
	return "feasible"
}
