package dataset

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/papapumpkin/agroplan/internal/calendar"
	"github.com/papapumpkin/agroplan/internal/garden"
	"github.com/papapumpkin/agroplan/internal/planerr"
	"github.com/papapumpkin/agroplan/internal/rules"
)

// Paths locates the input files of a run. CropTypes and PastPlan are
// optional.
type Paths struct {
	Beds      string
	Calendar  string
	CropTypes string
	PastPlan  string
}

// Files returns the non-empty paths, for watching.
func (p Paths) Files() []string {
	var out []string
	for _, f := range []string{p.Beds, p.Calendar, p.CropTypes, p.PastPlan} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// LoadProblem reads every file concurrently, then builds the bed registry
// and the crop calendar and checks that one can host the other.
func LoadProblem(ctx context.Context, paths Paths) (rules.Problem, error) {
	var (
		beds  []garden.Bed
		defs  []calendar.CropDefinition
		types calendar.CropTypeAttributes
		past  []calendar.PastOccurrence
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		beds, err = readFile(ctx, paths.Beds, ReadBeds)
		return err
	})
	g.Go(func() (err error) {
		defs, err = readFile(ctx, paths.Calendar, ReadCalendar)
		return err
	})
	if paths.CropTypes != "" {
		g.Go(func() (err error) {
			types, err = readFile(ctx, paths.CropTypes, ReadCropTypes)
			return err
		})
	}
	if paths.PastPlan != "" {
		g.Go(func() (err error) {
			past, err = readFile(ctx, paths.PastPlan, ReadPastPlan)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return rules.Problem{}, err
	}

	reg, err := garden.NewRegistry(beds)
	if err != nil {
		return rules.Problem{}, fmt.Errorf("%s: %w", paths.Beds, err)
	}
	cal, err := calendar.Build(defs, types, past)
	if err != nil {
		return rules.Problem{}, fmt.Errorf("%s: %w", paths.Calendar, err)
	}
	if err := calendar.CheckBeds(cal, reg); err != nil {
		return rules.Problem{}, err
	}
	return rules.Problem{Calendar: cal, Garden: reg}, nil
}

// ReadMatrixFile reads a rule matrix from path.
func ReadMatrixFile(path string) (*rules.Matrix[string], error) {
	return readFile(context.Background(), path, ReadMatrix)
}

func readFile[T any](ctx context.Context, path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	if path == "" {
		return zero, fmt.Errorf("%w: missing input path", planerr.ErrConfiguration)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
