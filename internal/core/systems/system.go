package systems

import (
	"context"
	"time"
)

// System is a tick-driven processor. Update is invoked once per tick by the
// Runner; the Runner never overlaps two Update calls.
type System interface {
	// Identity

	Name() string

	// Execution

	ExecutionPhase() ExecutionPhase
	Update(dt time.Duration) error

	// Lifecycle

	// Shutdown drains whatever the system still holds (pending writes,
	// cached resources). It is called once, in reverse registration order.
	Shutdown(ctx context.Context) error
}

// ExecutionPhase defines when a system runs within a tick.
type ExecutionPhase uint8

const (
	PhasePreUpdate ExecutionPhase = iota
	PhaseUpdate
	PhasePostUpdate
	PhaseLateUpdate
	PhaseCleanup
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseLateUpdate:
		return "late_update"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

func (m *Metrics) record(start time.Time, took time.Duration, err error) {
	m.ExecutionCount++
	m.TotalExecutionTime += took
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if took > m.MaxExecutionTime {
		m.MaxExecutionTime = took
	}
	if m.ExecutionCount == 1 || took < m.MinExecutionTime {
		m.MinExecutionTime = took
	}
	m.LastExecutionTime = start
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
