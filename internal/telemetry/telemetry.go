// Package telemetry records planning runs as a JSONL event stream: run
// start, model construction, each solve step, plan checks and run end.
// Every event of a run carries the run's ID.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart   = "run_start"
	KindModelBuilt = "model_built"
	KindSolveDone  = "solve_done"
	KindCheckDone  = "check_done"
	KindRunDone    = "run_done"
)

// Event represents a single telemetry record.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Command   string    `json:"command,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at
// path. The file is created if it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent use.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}

// Run stamps events with a run ID and the command that started the run.
type Run struct {
	ID      string
	Command string
	em      *Emitter
}

// StartRun allocates a run ID. The run is usable, with a real ID, even on a
// nil Emitter.
func (e *Emitter) StartRun(command string) *Run {
	return &Run{ID: uuid.NewString(), Command: command, em: e}
}

// Emit records an event of the given kind for the run.
func (r *Run) Emit(kind string, data any) error {
	return r.em.Emit(Event{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		RunID:     r.ID,
		Command:   r.Command,
		Data:      data,
	})
}
