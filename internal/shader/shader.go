// Package shader owns shader resource entities: the factory the material
// importer creates them through, and the system that loads and compiles
// their sources.
package shader

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/materials/internal/core/ecs"
)

var (
	ErrUnsupportedStage = errors.New("unsupported shader stage")
	ErrEmptyAddress     = errors.New("empty shader address")
	ErrBadSPIRV         = errors.New("SPIR-V output is not a whole number of words")
)

type State uint8

const (
	StatePending State = iota
	StateCompiled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompiled:
		return "compiled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Shader is the component carried by shader entities. Module is valid once
// State is StateCompiled; Err is set when State is StateFailed.
type Shader struct {
	Address string
	Stage   gputypes.ShaderStage
	State   State
	Module  gputypes.ShaderModuleDescriptor
	Err     error
}

// Factory creates shader entities in a world.
type Factory struct {
	world *ecs.World
}

func NewFactory(world *ecs.World) *Factory {
	return &Factory{world: world}
}

// CreateShader creates a pending shader entity for address.
func (f *Factory) CreateShader(address string, stage gputypes.ShaderStage) (ecs.EntityID, error) {
	if address == "" {
		return ecs.NoEntity, ErrEmptyAddress
	}
	if stage != gputypes.ShaderStageVertex && stage != gputypes.ShaderStageFragment {
		return ecs.NoEntity, ErrUnsupportedStage
	}
	id := f.world.CreateEntity()
	if err := ecs.Set(f.world, id, &Shader{Address: address, Stage: stage, State: StatePending}); err != nil {
		return ecs.NoEntity, err
	}
	return id, nil
}

// ReleaseShader queues the shader entity for destruction at the end of the
// tick.
func (f *Factory) ReleaseShader(id ecs.EntityID) {
	f.world.MarkForDestruction(id)
}
