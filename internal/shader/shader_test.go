package shader

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/materials/internal/core/ecs"
	"github.com/zeusync/materials/internal/core/events/bus"
	"github.com/zeusync/materials/internal/core/loader"
	"github.com/zeusync/materials/internal/core/observability/log"
)

const triangleWGSL = `
@vertex
fn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

const spirvMagic = 0x07230203

func TestFactory_CreateShader(t *testing.T) {
	w := ecs.NewWorld()
	f := NewFactory(w)

	id, err := f.CreateShader("lit.vert", gputypes.ShaderStageVertex)
	require.NoError(t, err)
	sh, ok := ecs.Get[Shader](w, id)
	require.True(t, ok)
	assert.Equal(t, "lit.vert", sh.Address)
	assert.Equal(t, gputypes.ShaderStageVertex, sh.Stage)
	assert.Equal(t, StatePending, sh.State)

	_, err = f.CreateShader("", gputypes.ShaderStageVertex)
	assert.ErrorIs(t, err, ErrEmptyAddress)
	_, err = f.CreateShader("c.wgsl", gputypes.ShaderStageCompute)
	assert.ErrorIs(t, err, ErrUnsupportedStage)

	f.ReleaseShader(id)
	assert.True(t, w.Alive(id), "release is deferred")
	w.FlushDestroyQueue()
	assert.False(t, w.Alive(id))
}

func newCompileFixture(t *testing.T) (*ecs.World, *Factory, *loader.MemoryLoader, *CompileSystem) {
	t.Helper()
	w := ecs.NewWorld()
	ld := loader.NewMemoryLoader()
	return w, NewFactory(w), ld, NewCompileSystem(w, ld, bus.New(), log.NewNop())
}

func TestCompileSystem_WGSL(t *testing.T) {
	w, f, ld, s := newCompileFixture(t)
	ld.Put("tri.wgsl", []byte(triangleWGSL))
	id, err := f.CreateShader("tri.wgsl", gputypes.ShaderStageVertex)
	require.NoError(t, err)

	require.NoError(t, s.Update(time.Millisecond))

	sh, _ := ecs.Get[Shader](w, id)
	require.Equal(t, StateCompiled, sh.State, "err: %v", sh.Err)
	assert.Equal(t, "tri.wgsl", sh.Module.Label)
	src, ok := sh.Module.Source.(gputypes.ShaderSourceSPIRV)
	require.True(t, ok)
	require.NotEmpty(t, src.Code)
	assert.Equal(t, uint32(spirvMagic), src.Code[0])
}

func TestCompileSystem_GLSLPassThrough(t *testing.T) {
	w, f, ld, s := newCompileFixture(t)
	s.WithDefines(map[string]string{"USE_FOG": "1"})
	code := "#version 450\nvoid main() {}\n"
	ld.Put("lit.frag", []byte(code))
	id, err := f.CreateShader("lit.frag", gputypes.ShaderStageFragment)
	require.NoError(t, err)

	require.NoError(t, s.Update(time.Millisecond))

	sh, _ := ecs.Get[Shader](w, id)
	require.Equal(t, StateCompiled, sh.State)
	assert.Equal(t, gputypes.ShaderSourceGLSL{
		Code:    code,
		Stage:   gputypes.ShaderStageFragment,
		Defines: map[string]string{"USE_FOG": "1"},
	}, sh.Module.Source)
}

func TestCompileSystem_WaitsForSource(t *testing.T) {
	w, f, ld, s := newCompileFixture(t)
	id, err := f.CreateShader("late.glsl", gputypes.ShaderStageVertex)
	require.NoError(t, err)

	require.NoError(t, s.Update(time.Millisecond))
	assert.Equal(t, 1, s.Pending())

	ld.Put("late.glsl", []byte("void main() {}"))
	require.NoError(t, s.Update(time.Millisecond))
	assert.Zero(t, s.Pending())
	sh, _ := ecs.Get[Shader](w, id)
	assert.Equal(t, StateCompiled, sh.State)
}

func TestCompileSystem_Failures(t *testing.T) {
	w, f, ld, s := newCompileFixture(t)
	events := bus.New()
	s.events = events
	var failed []string
	_, err := events.Subscribe(EventFailed, func(ev bus.Event) error {
		failed = append(failed, ev.Data().(CompiledEvent).Address)
		return nil
	})
	require.NoError(t, err)

	ld.Put("broken.wgsl", []byte("fn ("))
	ld.Put("odd.wgsl", []byte(triangleWGSL))
	broken, _ := f.CreateShader("broken.wgsl", gputypes.ShaderStageVertex)
	odd, _ := f.CreateShader("odd.wgsl", gputypes.ShaderStageVertex)

	errCompile := errors.New("boom")
	s.compile = func(source string) ([]byte, error) {
		if source == "fn (" {
			return nil, errCompile
		}
		return []byte{1, 2, 3}, nil
	}
	require.NoError(t, s.Update(time.Millisecond))

	sh, _ := ecs.Get[Shader](w, broken)
	assert.Equal(t, StateFailed, sh.State)
	assert.ErrorIs(t, sh.Err, errCompile)

	sh, _ = ecs.Get[Shader](w, odd)
	assert.Equal(t, StateFailed, sh.State)
	assert.ErrorIs(t, sh.Err, ErrBadSPIRV)

	assert.Equal(t, []string{"broken.wgsl", "odd.wgsl"}, failed)
}

func TestCompileSystem_RealCompilerRejectsInvalidWGSL(t *testing.T) {
	w, f, ld, s := newCompileFixture(t)
	ld.Put("bad.wgsl", []byte("this is not wgsl"))
	id, _ := f.CreateShader("bad.wgsl", gputypes.ShaderStageFragment)

	require.NoError(t, s.Update(time.Millisecond))
	sh, _ := ecs.Get[Shader](w, id)
	assert.Equal(t, StateFailed, sh.State)
	assert.Error(t, sh.Err)
}
