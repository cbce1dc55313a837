package material

import (
	"fmt"

	"github.com/zeusync/materials/internal/core/ecs"
)

// ShaderSlot names the material field a shader reference is written to.
type ShaderSlot uint8

const (
	SlotVertex ShaderSlot = iota
	SlotFragment
)

type opKind uint8

const (
	opSelect opKind = iota
	opAddReference
	opSetMaterial
	opEnsureInstanceData
	opEnsureParameters
	opEnsureTextures
)

type mutation struct {
	kind     opKind
	entity   ecs.EntityID
	target   ecs.EntityID
	slot     ShaderSlot
	material Material
}

type ensureKey struct {
	entity ecs.EntityID
	kind   opKind
}

// MutationBatch records world writes during a scan and applies them in order
// at Commit. Every op after Select applies to the selected entity.
type MutationBatch struct {
	ops      []mutation
	selected ecs.EntityID
	ensured  map[ensureKey]struct{}
}

func NewMutationBatch() *MutationBatch {
	return &MutationBatch{ensured: make(map[ensureKey]struct{})}
}

func (b *MutationBatch) Select(id ecs.EntityID) *MutationBatch {
	b.selected = id
	b.ops = append(b.ops, mutation{kind: opSelect, entity: id})
	return b
}

// AddReference records a reference from the selected entity to target. The
// resulting slot index is written into the material field for slot by a
// later SetMaterial in the same selection.
func (b *MutationBatch) AddReference(target ecs.EntityID, slot ShaderSlot) *MutationBatch {
	b.ops = append(b.ops, mutation{kind: opAddReference, entity: b.selected, target: target, slot: slot})
	return b
}

// SetMaterial attaches or replaces the selected entity's Material.
func (b *MutationBatch) SetMaterial(m Material) *MutationBatch {
	b.ops = append(b.ops, mutation{kind: opSetMaterial, entity: b.selected, material: m})
	return b
}

func (b *MutationBatch) EnsureInstanceData() *MutationBatch { return b.ensure(opEnsureInstanceData) }
func (b *MutationBatch) EnsureParameters() *MutationBatch   { return b.ensure(opEnsureParameters) }
func (b *MutationBatch) EnsureTextures() *MutationBatch     { return b.ensure(opEnsureTextures) }

func (b *MutationBatch) ensure(kind opKind) *MutationBatch {
	key := ensureKey{entity: b.selected, kind: kind}
	if _, ok := b.ensured[key]; ok {
		return b
	}
	b.ensured[key] = struct{}{}
	b.ops = append(b.ops, mutation{kind: kind, entity: b.selected})
	return b
}

// Len is the number of recorded ops.
func (b *MutationBatch) Len() int { return len(b.ops) }

// Reset drops all recorded ops.
func (b *MutationBatch) Reset() {
	b.ops = b.ops[:0]
	b.selected = ecs.NoEntity
	clear(b.ensured)
}

// Discard is Reset for teardown paths where the world is going away.
func (b *MutationBatch) Discard() { b.Reset() }

// Commit applies the recorded ops to w and resets the batch.
//
// Every selected entity is checked before anything is written, so a batch
// that targets a dead entity leaves the world untouched. The batch is reset
// either way.
func (b *MutationBatch) Commit(w *ecs.World) error {
	defer b.Reset()

	if len(b.ops) == 0 {
		return nil
	}
	if b.ops[0].kind != opSelect {
		return ErrNoSelection
	}
	for _, op := range b.ops {
		if op.kind == opSelect && !w.Alive(op.entity) {
			return fmt.Errorf("commit mutations for %s: %w", op.entity, ecs.ErrEntityNotFound)
		}
	}

	refs := make(map[ShaderSlot]ecs.RefIndex, 2)
	for _, op := range b.ops {
		var err error
		switch op.kind {
		case opSelect:
			clear(refs)
		case opAddReference:
			var idx ecs.RefIndex
			idx, err = w.AddReference(op.entity, op.target)
			refs[op.slot] = idx
		case opSetMaterial:
			m := op.material
			if idx, ok := refs[SlotVertex]; ok {
				m.VertexShader = idx
			}
			if idx, ok := refs[SlotFragment]; ok {
				m.FragmentShader = idx
			}
			err = ecs.Set(w, op.entity, &m)
		case opEnsureInstanceData:
			_, err = ecs.EnsureBuffer[InstanceData](w, op.entity)
		case opEnsureParameters:
			_, err = ecs.EnsureBuffer[ParameterBinding](w, op.entity)
		case opEnsureTextures:
			_, err = ecs.EnsureBuffer[TextureBinding](w, op.entity)
		}
		if err != nil {
			return fmt.Errorf("commit mutations for %s: %w", op.entity, err)
		}
	}
	return nil
}
