// Package common provides shared utilities including timing functionality.
package common

import (
	"fmt"
	"strings"
	"time"
)

// StageTimer records the duration of named processing stages in order.
// It is not safe for concurrent use; each request gets its own timer.
type StageTimer struct {
	start  time.Time
	last   time.Time
	stages []Stage
}

// Stage is one timed section of a request.
type Stage struct {
	Name     string
	Duration time.Duration
}

// NewStageTimer starts a timer for a single request.
func NewStageTimer() *StageTimer {
	now := time.Now()
	return &StageTimer{start: now, last: now}
}

// Mark closes the current stage under the given name and starts the next.
func (t *StageTimer) Mark(name string) time.Duration {
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	t.stages = append(t.stages, Stage{Name: name, Duration: d})
	return d
}

// Total returns the elapsed time since the timer started.
func (t *StageTimer) Total() time.Duration {
	return time.Since(t.start)
}

// Stages returns the recorded stages in order.
func (t *StageTimer) Stages() []Stage {
	return t.stages
}

// Attrs returns the stages as alternating key/value pairs for slog.
func (t *StageTimer) Attrs() []any {
	attrs := make([]any, 0, 2*len(t.stages))
	for _, s := range t.stages {
		attrs = append(attrs, s.Name+"_ms", s.Duration.Milliseconds())
	}
	return attrs
}

// String returns a compact summary like "decode=3ms extract=120ms".
func (t *StageTimer) String() string {
	parts := make([]string, 0, len(t.stages))
	for _, s := range t.stages {
		parts = append(parts, fmt.Sprintf("%s=%v", s.Name, s.Duration.Round(time.Millisecond)))
	}
	return strings.Join(parts, " ")
}
