package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/papapumpkin/agroplan/internal/plan"
)

// testArchive creates a temporary archive and registers cleanup.
func testArchive(t *testing.T) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	a, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func samplePlan(beds ...int) *plan.Plan {
	p := &plan.Plan{}
	for i, b := range beds {
		p.Rows = append(p.Rows, plan.Row{Slot: i, Group: i / 2, Crop: "leek", Type: "allium", Start: 3, End: 20, Bed: b, Past: i == 0})
	}
	return p
}

func TestOpen_WAL(t *testing.T) {
	t.Parallel()
	a := testArchive(t)
	var mode string
	if err := a.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestRecordAndPlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := testArchive(t)

	runID := uuid.NewString()
	plans := []*plan.Plan{samplePlan(1, 2, 3), samplePlan(1, 3, 2)}
	err := a.Record(ctx, Entry{RunID: runID, Command: "solve", Strategy: "first_fail", Outcome: "satisfied", Rules: 4,
		Elapsed: 1500 * time.Millisecond, Plans: plans})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	for i, want := range plans {
		got, err := a.Plan(ctx, runID, i+1)
		if err != nil {
			t.Fatalf("Plan(%d): %v", i+1, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("plan %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}
	if _, err := a.Plan(ctx, runID, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("Plan(3) = %v, want ErrNotFound", err)
	}
	if _, err := a.Plan(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Plan(missing) = %v, want ErrNotFound", err)
	}
}

func TestRecord_DuplicateRunRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := testArchive(t)

	e := Entry{RunID: "r1", Command: "solve", Outcome: "satisfied", Plans: []*plan.Plan{samplePlan(1, 2)}}
	if err := a.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e.Plans = []*plan.Plan{samplePlan(2, 1), samplePlan(1, 1)}
	if err := a.Record(ctx, e); err == nil {
		t.Fatal("second Record with the same run ID succeeded")
	}
	if _, err := a.Plan(ctx, "r1", 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled back plan is visible: %v", err)
	}
}

func TestList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := testArchive(t)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RunID: "old", Command: "check", Outcome: "passed", Created: base},
		{RunID: "new", Command: "solve", Outcome: "infeasible", Rules: 3, Elapsed: 2 * time.Second, Created: base.Add(time.Hour)},
		{RunID: "mid", Command: "solve", Outcome: "satisfied", Created: base.Add(time.Minute),
			Plans: []*plan.Plan{samplePlan(1), samplePlan(2)}},
	}
	for _, e := range entries {
		if err := a.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s): %v", e.RunID, err)
		}
	}

	got, err := a.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, e := range got {
		ids = append(ids, e.RunID)
	}
	if diff := cmp.Diff([]string{"new", "mid", "old"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got[0].Rules != 3 || got[0].Elapsed != 2*time.Second || !got[0].Created.Equal(base.Add(time.Hour)) {
		t.Errorf("newest entry = %+v", got[0])
	}
	if got[1].Solutions != 2 || got[1].Plans != nil {
		t.Errorf("mid entry solutions = %d, plans = %v", got[1].Solutions, got[1].Plans)
	}

	limited, err := a.List(ctx, 1)
	if err != nil {
		t.Fatalf("List(1): %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "new" {
		t.Errorf("List(1) = %+v", limited)
	}
}
