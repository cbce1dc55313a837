package systems

import (
	"context"
	"time"

	"github.com/zeusync/materials/internal/core/ecs"
)

// CleanupSystem flushes the world's deferred destruction queue at tick end.
type CleanupSystem struct {
	world *ecs.World
}

func NewCleanupSystem(world *ecs.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Name() string                   { return "cleanup" }
func (s *CleanupSystem) ExecutionPhase() ExecutionPhase { return PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) error {
	s.world.FlushDestroyQueue()
	return nil
}

func (s *CleanupSystem) Shutdown(_ context.Context) error {
	s.world.FlushDestroyQueue()
	return nil
}
