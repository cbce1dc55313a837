package shader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/zeusync/materials/internal/core/ecs"
	"github.com/zeusync/materials/internal/core/events/bus"
	"github.com/zeusync/materials/internal/core/loader"
	"github.com/zeusync/materials/internal/core/observability/log"
	"github.com/zeusync/materials/internal/core/systems"
)

const (
	EventCompiled = "shader.compiled"
	EventFailed   = "shader.failed"
)

const compileSystemName = "shader_compile"

// CompiledEvent is the payload of shader.* events.
type CompiledEvent struct {
	Entity  ecs.EntityID
	Address string
	Stage   gputypes.ShaderStage
	Err     error
}

// CompileFunc turns WGSL source into SPIR-V.
type CompileFunc func(source string) ([]byte, error)

// CompileSystem loads the source of every pending shader and builds its
// module. Sources ending in .wgsl are compiled to SPIR-V; anything else is
// handed to the backend as GLSL for the shader's stage.
type CompileSystem struct {
	world   *ecs.World
	loader  loader.Loader
	compile CompileFunc
	events  bus.EventBus
	logger  log.Log
	defines map[string]string
}

var _ systems.System = (*CompileSystem)(nil)

func NewCompileSystem(world *ecs.World, ld loader.Loader, events bus.EventBus, logger log.Log) *CompileSystem {
	return &CompileSystem{
		world:   world,
		loader:  ld,
		compile: naga.Compile,
		events:  events,
		logger:  logger.With(log.String("system", compileSystemName)),
	}
}

// WithDefines sets the preprocessor defines attached to GLSL modules.
func (s *CompileSystem) WithDefines(defines map[string]string) *CompileSystem {
	s.defines = defines
	return s
}

func (s *CompileSystem) Name() string                           { return compileSystemName }
func (s *CompileSystem) ExecutionPhase() systems.ExecutionPhase { return systems.PhasePostUpdate }

func (s *CompileSystem) Update(_ time.Duration) error {
	for _, id := range ecs.Query[Shader](s.world) {
		sh, ok := ecs.Get[Shader](s.world, id)
		if !ok || sh.State != StatePending {
			continue
		}
		src, err := s.loader.Load(sh.Address)
		if errors.Is(err, loader.ErrNotReady) {
			continue
		}
		if err == nil {
			sh.Module, err = s.build(sh, src)
		}
		if err != nil {
			sh.State = StateFailed
			sh.Err = err
			s.logger.Error("shader build failed", log.Entity(id), log.Address(sh.Address), log.Error(err))
			s.publish(EventFailed, id, sh)
			continue
		}
		sh.State = StateCompiled
		s.logger.Debug("shader compiled", log.Entity(id), log.Address(sh.Address), log.Stringer("stage", sh.Stage))
		s.publish(EventCompiled, id, sh)
	}
	return nil
}

func (s *CompileSystem) build(sh *Shader, src []byte) (gputypes.ShaderModuleDescriptor, error) {
	desc := gputypes.ShaderModuleDescriptor{Label: sh.Address}
	if !strings.EqualFold(path.Ext(sh.Address), ".wgsl") {
		desc.Source = gputypes.ShaderSourceGLSL{Code: string(src), Stage: sh.Stage, Defines: s.defines}
		return desc, nil
	}
	spirv, err := s.compile(string(src))
	if err != nil {
		return desc, fmt.Errorf("compile %s: %w", sh.Address, err)
	}
	words, err := spirvWords(spirv)
	if err != nil {
		return desc, fmt.Errorf("compile %s: %w", sh.Address, err)
	}
	desc.Source = gputypes.ShaderSourceSPIRV{Code: words}
	return desc, nil
}

func spirvWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, ErrBadSPIRV
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

func (s *CompileSystem) publish(typ string, id ecs.EntityID, sh *Shader) {
	if s.events == nil {
		return
	}
	ev := bus.NewEvent(typ, compileSystemName, CompiledEvent{Entity: id, Address: sh.Address, Stage: sh.Stage, Err: sh.Err}, nil)
	if err := s.events.Publish(ev); err != nil {
		s.logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

func (s *CompileSystem) Shutdown(_ context.Context) error { return nil }

// Pending reports how many shaders are still waiting for their source.
func (s *CompileSystem) Pending() int {
	n := 0
	ecs.StoreOf[Shader](s.world).Each(func(_ ecs.EntityID, sh *Shader) {
		if sh.State == StatePending {
			n++
		}
	})
	return n
}
