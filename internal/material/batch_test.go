package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/materials/internal/core/ecs"
)

func TestMutationBatch_CommitWritesMaterialAndReferences(t *testing.T) {
	w := ecs.NewWorld()
	owner := w.CreateEntity()
	vs := w.CreateEntity()
	fs := w.CreateEntity()

	b := NewMutationBatch()
	m := Material{RenderGroup: 4, VertexShader: NoShader, FragmentShader: NoShader, Blend: OpaqueBlend(), Depth: DefaultDepth()}
	b.Select(owner).
		AddReference(vs, SlotVertex).
		AddReference(fs, SlotFragment).
		SetMaterial(m).
		EnsureInstanceData().
		EnsureParameters().
		EnsureTextures()

	assert.False(t, ecs.Has[Material](w, owner), "nothing applied before commit")
	require.NoError(t, b.Commit(w))
	assert.Zero(t, b.Len())

	got, ok := ecs.Get[Material](w, owner)
	require.True(t, ok)
	assert.Equal(t, int8(4), got.RenderGroup)

	v, f, err := Shaders(w, owner)
	require.NoError(t, err)
	assert.Equal(t, vs, v)
	assert.Equal(t, fs, f)

	assert.True(t, ecs.HasBuffer[InstanceData](w, owner))
	assert.True(t, ecs.HasBuffer[ParameterBinding](w, owner))
	assert.True(t, ecs.HasBuffer[TextureBinding](w, owner))
}

func TestMutationBatch_EnsureIsIdempotent(t *testing.T) {
	w := ecs.NewWorld()
	id := w.CreateEntity()
	_, err := ecs.EnsureBuffer[TextureBinding](w, id)
	require.NoError(t, err)
	buf, _ := ecs.BufferOf[TextureBinding](w, id)
	buf.Items = append(buf.Items, TextureBinding{Slot: 1, Address: "albedo.png"})

	b := NewMutationBatch()
	b.Select(id).EnsureTextures().EnsureTextures()
	assert.Equal(t, 2, b.Len(), "duplicate ensure is not recorded")

	require.NoError(t, b.Commit(w))
	buf, _ = ecs.BufferOf[TextureBinding](w, id)
	assert.Len(t, buf.Items, 1, "existing buffer kept")
}

func TestMutationBatch_DeadEntityLeavesWorldUntouched(t *testing.T) {
	w := ecs.NewWorld()
	alive := w.CreateEntity()
	dead := w.CreateEntity()
	require.True(t, w.DestroyEntity(dead))

	b := NewMutationBatch()
	b.Select(alive).SetMaterial(Material{})
	b.Select(dead).SetMaterial(Material{})

	err := b.Commit(w)
	require.ErrorIs(t, err, ecs.ErrEntityNotFound)
	assert.False(t, ecs.Has[Material](w, alive))
	assert.Zero(t, b.Len(), "batch reset after a failed commit")
}

func TestMutationBatch_RequiresSelection(t *testing.T) {
	b := NewMutationBatch()
	b.SetMaterial(Material{})
	assert.ErrorIs(t, b.Commit(ecs.NewWorld()), ErrNoSelection)
}

func TestMutationBatch_ReferencesScopedToSelection(t *testing.T) {
	w := ecs.NewWorld()
	a := w.CreateEntity()
	c := w.CreateEntity()
	shader := w.CreateEntity()

	b := NewMutationBatch()
	b.Select(a).AddReference(shader, SlotVertex).SetMaterial(Material{VertexShader: NoShader, FragmentShader: NoShader})
	b.Select(c).SetMaterial(Material{VertexShader: NoShader, FragmentShader: NoShader})
	require.NoError(t, b.Commit(w))

	ma, _ := ecs.Get[Material](w, a)
	mc, _ := ecs.Get[Material](w, c)
	assert.Equal(t, ecs.RefIndex(0), ma.VertexShader)
	assert.Equal(t, NoShader, mc.VertexShader)
}

func TestMutationBatch_Discard(t *testing.T) {
	w := ecs.NewWorld()
	id := w.CreateEntity()
	b := NewMutationBatch()
	b.Select(id).SetMaterial(Material{}).EnsureInstanceData()
	b.Discard()

	assert.Zero(t, b.Len())
	require.NoError(t, b.Commit(w))
	assert.False(t, ecs.Has[Material](w, id))

	// Ensure dedupe state is cleared with the ops.
	b.Select(id).EnsureInstanceData()
	assert.Equal(t, 2, b.Len())
}
