package systems

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zeusync/materials/internal/core/observability/log"
)

var ErrDuplicateSystem = errors.New("system already registered")

// Runner executes systems in phase order each tick. Systems sharing a phase
// keep their registration order.
type Runner struct {
	systems []System
	metrics map[string]*Metrics
	sorted  bool
	frame   uint64
	logger  log.Log
}

func NewRunner(logger log.Log) *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		metrics: make(map[string]*Metrics, 8),
		logger:  logger,
	}
}

func (r *Runner) Register(s System) error {
	if _, exists := r.metrics[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, s.Name())
	}
	r.systems = append(r.systems, s)
	r.metrics[s.Name()] = &Metrics{}
	r.sorted = false
	return nil
}

// Tick runs every system once. A failing system does not stop the systems
// after it; all errors of the tick are joined and returned.
func (r *Runner) Tick(dt time.Duration) error {
	r.ensureSorted()
	r.frame++
	var all error
	for _, s := range r.systems {
		start := time.Now()
		err := s.Update(dt)
		r.metrics[s.Name()].record(start, time.Since(start), err)
		if err != nil {
			r.logger.Error("system update failed",
				log.String("system", s.Name()),
				log.Uint64("frame", r.frame),
				log.Error(err),
			)
			all = errors.Join(all, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return all
}

// Frame returns the number of ticks run so far.
func (r *Runner) Frame() uint64 { return r.frame }

func (r *Runner) Metrics(name string) (Metrics, bool) {
	m, ok := r.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *m, true
}

// Shutdown shuts systems down in reverse execution order.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.ensureSorted()
	var all error
	for i := len(r.systems) - 1; i >= 0; i-- {
		if err := r.systems[i].Shutdown(ctx); err != nil {
			all = errors.Join(all, fmt.Errorf("%s: %w", r.systems[i].Name(), err))
		}
	}
	return all
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].ExecutionPhase() < r.systems[j].ExecutionPhase()
		})
		r.sorted = true
	}
}
