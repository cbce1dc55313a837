package material

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/materials/internal/core/ecs"
)

type testShader struct {
	Address string
	Stage   gputypes.ShaderStage
}

// testFactory creates a real entity per shader so that shader creation
// changes the world's structure like the production factory does.
type testFactory struct {
	world    *ecs.World
	created  []string
	released []ecs.EntityID
	fail     map[string]error

	// onCreate runs before a shader entity is created.
	onCreate func(address string)
}

func newTestFactory(w *ecs.World) *testFactory {
	return &testFactory{world: w, fail: map[string]error{}}
}

func (f *testFactory) CreateShader(address string, stage gputypes.ShaderStage) (ecs.EntityID, error) {
	if err := f.fail[address]; err != nil {
		return ecs.NoEntity, err
	}
	if f.onCreate != nil {
		f.onCreate(address)
	}
	id := f.world.CreateEntity()
	if err := ecs.Set(f.world, id, &testShader{Address: address, Stage: stage}); err != nil {
		return ecs.NoEntity, err
	}
	f.created = append(f.created, address)
	return id, nil
}

func (f *testFactory) ReleaseShader(id ecs.EntityID) {
	f.released = append(f.released, id)
	f.world.MarkForDestruction(id)
}

var errFactory = errors.New("factory failure")
