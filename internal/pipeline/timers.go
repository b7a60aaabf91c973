package pipeline

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Timers records per-phase wall time for the run report. Phases from the
// concurrent test/coverage chains land in the same map, so access is locked.
type Timers struct {
	mu     sync.Mutex
	Phases map[string]float64 `json:"phases"`
}

// NewTimers returns an empty timer set.
func NewTimers() *Timers {
	return &Timers{Phases: map[string]float64{}}
}

// Observe starts timing a phase and returns the stop function.
func (t *Timers) Observe(phase string) func() {
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Seconds()
		t.mu.Lock()
		t.Phases[phase] = elapsed
		t.mu.Unlock()
		log.Debugf("phase %s took %.3fs", phase, elapsed)
	}
}
