// Package progress delivers per-line and per-step progress of transition
// runs to pluggable sinks. Sinks are shared by every worker of a batch and
// must be safe for concurrent use.
package progress

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Kind classifies a progress Event.
type Kind string

const (
	KindOutput    Kind = "output"     // one stdout line of a transition tool
	KindStepStart Kind = "step_start" // a tool is about to run
	KindStepDone  Kind = "step_done"  // a tool finished and its output was adopted
	KindRunDone   Kind = "run_done"   // the run reached a terminal outcome
)

// Event is one progress record of a transition run.
type Event struct {
	RunID   string `json:"run_id"`
	Model   string `json:"model"`
	Kind    Kind   `json:"kind"`
	Step    int    `json:"step"`  // 1-based; 0 for run-level events
	Total   int    `json:"total"` // number of steps in the run
	Version string `json:"version,omitempty"`
	Line    string `json:"line,omitempty"`
}

// Sink receives progress events. Emit must not block for long and must be
// safe to call from many goroutines.
type Sink interface {
	Emit(ev Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// LogSink writes each event as a single logrus entry. logrus serializes
// writes to its output, so lines from concurrent runs never interleave.
type LogSink struct {
	Logger *logrus.Logger // defaults to the standard logger
	Level  logrus.Level   // level for output lines; step events use Info
}

// NewLogSink returns a LogSink on the standard logger that reports tool
// output at debug level.
func NewLogSink() *LogSink {
	return &LogSink{Logger: logrus.StandardLogger(), Level: logrus.DebugLevel}
}

func (s *LogSink) Emit(ev Event) {
	logger := s.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"run":   shortID(ev.RunID),
		"model": ev.Model,
	})
	if ev.Step > 0 {
		entry = entry.WithField("step", ev.Step).WithField("of", ev.Total)
	}
	switch ev.Kind {
	case KindOutput:
		entry.Log(s.Level, ev.Line)
	case KindStepStart:
		entry.Infof("upgrading to %s", ev.Version)
	case KindStepDone:
		entry.Infof("now at %s", ev.Version)
	case KindRunDone:
		entry.Infof("run finished: %s", ev.Line)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MultiSink fans every event out to each of its sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Recorder keeps every event in memory. It is meant for tests and for
// callers that want to inspect a run afterwards.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Lines returns the output lines recorded for model, in arrival order.
func (r *Recorder) Lines(model string) []string {
	var lines []string
	for _, ev := range r.Events() {
		if ev.Model == model && ev.Kind == KindOutput {
			lines = append(lines, ev.Line)
		}
	}
	return lines
}
