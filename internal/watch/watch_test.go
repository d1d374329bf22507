package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, paths ...string) *Watcher {
	t.Helper()
	w, err := New(paths, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func TestWatcher_DetectsChange(t *testing.T) {
	dir := t.TempDir()
	beds := filepath.Join(dir, "beds.csv")
	if err := os.WriteFile(beds, []byte("bed_id\n1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := startWatcher(t, beds)

	if err := os.WriteFile(beds, []byte("bed_id\n1\n2\n"), 0o644); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.Path != beds {
			t.Errorf("path = %q, want %q", change.Path, beds)
		}
		if change.Removed {
			t.Error("change reported as removal")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	cal := filepath.Join(dir, "calendar.csv")
	w := startWatcher(t, cal)

	for i := range 5 {
		if err := os.WriteFile(cal, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	select {
	case <-w.Changes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	select {
	case change := <-w.Changes:
		t.Errorf("burst produced a second change: %+v", change)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, filepath.Join(dir, "beds.csv"))

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	past := filepath.Join(dir, "past.csv")
	if err := os.WriteFile(past, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := startWatcher(t, past)

	if err := os.Remove(past); err != nil {
		t.Fatalf("remove: %v", err)
	}
	select {
	case change := <-w.Changes:
		if !change.Removed {
			t.Errorf("change = %+v, want removal", change)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}
}
