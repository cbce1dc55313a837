package material

import (
	"time"

	"github.com/zeusync/materials/internal/core/ecs"
)

// RequestStatus is the lifecycle state of a MaterialRequest.
type RequestStatus uint8

const (
	StatusSubmitted RequestStatus = iota
	StatusLoading
	StatusLoaded
	StatusNotFound
)

func (s RequestStatus) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Terminal reports whether the import system is done with the request.
func (s RequestStatus) Terminal() bool {
	return s == StatusLoaded || s == StatusNotFound
}

// MaterialRequest asks the import system to load the descriptor at Address
// into a Material on the same entity.
type MaterialRequest struct {
	Address  string
	Status   RequestStatus
	Duration time.Duration
	Timeout  time.Duration
}

func NewMaterialRequest(address string, timeout time.Duration) *MaterialRequest {
	return &MaterialRequest{Address: address, Status: StatusSubmitted, Timeout: timeout}
}

// Resubmit restarts a request from Submitted with no accumulated wait.
func (r *MaterialRequest) Resubmit() {
	r.Status = StatusSubmitted
	r.Duration = 0
}

// Submit creates an entity carrying a new request for address.
func Submit(w *ecs.World, address string, timeout time.Duration) (ecs.EntityID, error) {
	id := w.CreateEntity()
	if err := ecs.Set(w, id, NewMaterialRequest(address, timeout)); err != nil {
		return ecs.NoEntity, err
	}
	return id, nil
}

// NoShader marks a material shader slot that has not been resolved.
const NoShader = ecs.NoRef

// Material is the render state produced from a descriptor. Shader fields index
// the owning entity's reference table; the reference does not own the shader.
type Material struct {
	RenderGroup    int8
	VertexShader   ecs.RefIndex
	FragmentShader ecs.RefIndex
	Blend          BlendSettings
	Depth          DepthSettings
}

// Shaders returns the shader entities referenced by the material on id.
func Shaders(w *ecs.World, id ecs.EntityID) (vertex, fragment ecs.EntityID, err error) {
	m, ok := ecs.Get[Material](w, id)
	if !ok {
		return ecs.NoEntity, ecs.NoEntity, ecs.ErrEntityNotFound
	}
	if vertex, err = w.Reference(id, m.VertexShader); err != nil {
		return ecs.NoEntity, ecs.NoEntity, err
	}
	if fragment, err = w.Reference(id, m.FragmentShader); err != nil {
		return ecs.NoEntity, ecs.NoEntity, err
	}
	return vertex, fragment, nil
}

// InstanceData is one element of a material's per-instance data buffer.
type InstanceData struct {
	Transform [16]float32
	Color     [4]float32
}

// ParameterBinding links a named material parameter to another entity.
type ParameterBinding struct {
	Name   string
	Entity ecs.EntityID
}

// TextureBinding binds a texture address to a sampler slot.
type TextureBinding struct {
	Slot    uint32
	Address string
}
