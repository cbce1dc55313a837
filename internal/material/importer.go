package material

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/materials/internal/core/ecs"
	"github.com/zeusync/materials/internal/core/events/bus"
	"github.com/zeusync/materials/internal/core/loader"
	"github.com/zeusync/materials/internal/core/observability/log"
	"github.com/zeusync/materials/internal/core/systems"
)

const (
	EventRequestStarted  = "material.request.started"
	EventRequestLoaded   = "material.request.loaded"
	EventRequestNotFound = "material.request.not_found"
	EventRequestFailed   = "material.request.failed"
)

const systemName = "material_import"

// RequestEvent is the payload of every material.request.* event.
type RequestEvent struct {
	Entity   ecs.EntityID
	Address  string
	Status   RequestStatus
	Duration time.Duration
	Err      error
}

// Stats counts what the import system has done since it was created.
type Stats struct {
	Started        uint64
	Loaded         uint64
	NotFound       uint64
	Failed         uint64
	ShadersCreated uint64
	CacheHits      uint64
}

// ImportSystem turns MaterialRequest components into Material components.
//
// Each tick it walks the requests in storage order. A Submitted request moves
// to Loading without a load attempt. A Loading request polls the loader; on
// data it parses the descriptor, resolves both shaders through the cache and
// queues the material writes, which are committed once the walk is over. The
// request becomes Loaded with that commit. A request whose data does not arrive within its Timeout becomes NotFound.
type ImportSystem struct {
	world   *ecs.World
	loader  loader.Loader
	factory ShaderFactory
	cache   *ShaderCache
	batch   *MutationBatch
	events  bus.EventBus
	logger  log.Log
	stats   Stats

	// requests whose writes sit in batch
	pending []ecs.EntityID
}

var _ systems.System = (*ImportSystem)(nil)

func NewImportSystem(world *ecs.World, ld loader.Loader, factory ShaderFactory, events bus.EventBus, logger log.Log) *ImportSystem {
	return &ImportSystem{
		world:   world,
		loader:  ld,
		factory: factory,
		cache:   NewShaderCache(factory),
		batch:   NewMutationBatch(),
		events:  events,
		logger:  logger.With(log.String("system", systemName)),
	}
}

func (s *ImportSystem) Name() string                           { return systemName }
func (s *ImportSystem) ExecutionPhase() systems.ExecutionPhase { return systems.PhaseUpdate }

func (s *ImportSystem) Stats() Stats { return s.stats }

// Cache exposes the shader cache for inspection.
func (s *ImportSystem) Cache() *ShaderCache { return s.cache }

// Resubmit restarts the request on id from Submitted. Loaders that cache
// results keep serving the cached bytes unless the caller evicts them.
func (s *ImportSystem) Resubmit(id ecs.EntityID) error {
	req, ok := ecs.Get[MaterialRequest](s.world, id)
	if !ok {
		return fmt.Errorf("resubmit %s: %w", id, ecs.ErrEntityNotFound)
	}
	req.Resubmit()
	return nil
}

// Update advances every request by one step.
//
// A request whose descriptor is rejected stays Loading and the scan moves on
// to the next one. Rejections are returned joined once the batch has been
// committed. Requests loaded this tick become Loaded only after the commit
// succeeds.
func (s *ImportSystem) Update(dt time.Duration) error {
	store := ecs.StoreOf[MaterialRequest](s.world)
	ids := store.IDs()
	version, members := s.world.Version(), store.Version()
	visited := make(map[ecs.EntityID]struct{}, len(ids))

	var failures []error
	for i := 0; i < len(ids); i++ {
		id := ids[i]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		req, ok := store.Get(id)
		if !ok {
			continue
		}

		switch req.Status {
		case StatusSubmitted:
			req.Status = StatusLoading
			s.stats.Started++
			s.logger.Info("material request started", log.Entity(id), log.Address(req.Address))
			s.publish(EventRequestStarted, id, req, nil)

		case StatusLoading:
			if err := s.poll(id, req, dt); err != nil {
				failures = append(failures, err)
			}
		}

		if s.world.Version() == version {
			continue
		}
		version = s.world.Version()
		// Shader creation changes the world without touching the request set,
		// in which case the snapshot is still exact.
		if store.Version() != members {
			ids = store.IDs()
			members = store.Version()
			i = -1
		}
	}

	if err := s.commit(); err != nil {
		failures = append(failures, err)
	}
	return errors.Join(failures...)
}

// poll makes one load attempt for a Loading request.
func (s *ImportSystem) poll(id ecs.EntityID, req *MaterialRequest, dt time.Duration) error {
	data, err := s.loader.Load(req.Address)
	if err != nil {
		if !errors.Is(err, loader.ErrNotReady) {
			s.logger.Debug("material load attempt failed", log.Entity(id), log.Address(req.Address), log.Error(err))
		}
		req.Duration += dt
		if req.Duration >= req.Timeout {
			req.Status = StatusNotFound
			s.stats.NotFound++
			s.logger.Error("material request timed out",
				log.Entity(id),
				log.Address(req.Address),
				log.Duration("waited", req.Duration),
				log.Duration("timeout", req.Timeout),
			)
			s.publish(EventRequestNotFound, id, req, nil)
		}
		return nil
	}

	if err := s.load(id, data); err != nil {
		s.stats.Failed++
		s.logger.Error("material descriptor rejected", log.Entity(id), log.Address(req.Address), log.Error(err))
		s.publish(EventRequestFailed, id, req, err)
		return fmt.Errorf("material %s (%s): %w", id, req.Address, err)
	}
	s.pending = append(s.pending, id)
	return nil
}

// commit applies the queued writes and settles the requests they belong to.
// When the commit fails nothing was written and those requests stay Loading.
func (s *ImportSystem) commit() error {
	defer func() { s.pending = s.pending[:0] }()

	if err := s.batch.Commit(s.world); err != nil {
		s.logger.Warn("material writes not committed", log.Int("requests", len(s.pending)), log.Error(err))
		return err
	}
	for _, id := range s.pending {
		req, ok := ecs.Get[MaterialRequest](s.world, id)
		if !ok {
			continue
		}
		req.Status = StatusLoaded
		s.stats.Loaded++
		s.logger.Info("material loaded", log.Entity(id), log.Address(req.Address))
		s.publish(EventRequestLoaded, id, req, nil)
	}
	return nil
}

func (s *ImportSystem) load(id ecs.EntityID, data []byte) error {
	desc, err := ParseDescriptor(data)
	if err != nil {
		return err
	}
	vertex, err := s.resolveShader(desc.Vertex, gputypes.ShaderStageVertex)
	if err != nil {
		return err
	}
	fragment, err := s.resolveShader(desc.Fragment, gputypes.ShaderStageFragment)
	if err != nil {
		return err
	}

	s.batch.Select(id).
		AddReference(vertex, SlotVertex).
		AddReference(fragment, SlotFragment).
		SetMaterial(desc.Material()).
		EnsureInstanceData().
		EnsureParameters().
		EnsureTextures()
	return nil
}

func (s *ImportSystem) resolveShader(address string, stage gputypes.ShaderStage) (ecs.EntityID, error) {
	shader, hit, err := s.cache.Resolve(s.world.ID(), address, stage)
	if err != nil {
		return ecs.NoEntity, fmt.Errorf("create %s shader %q: %w", stage, address, err)
	}
	if hit {
		s.stats.CacheHits++
	} else {
		s.stats.ShadersCreated++
		s.logger.Debug("shader created", log.Entity(shader), log.Address(address), log.Stringer("stage", stage))
	}
	return shader, nil
}

func (s *ImportSystem) publish(typ string, id ecs.EntityID, req *MaterialRequest, err error) {
	if s.events == nil {
		return
	}
	ev := bus.NewEvent(typ, systemName, RequestEvent{
		Entity:   id,
		Address:  req.Address,
		Status:   req.Status,
		Duration: req.Duration,
		Err:      err,
	}, nil)
	if perr := s.events.Publish(ev); perr != nil {
		s.logger.Warn("event handler failed", log.String("event", typ), log.Error(perr))
	}
}

// Shutdown commits pending writes and releases every cached shader.
func (s *ImportSystem) Shutdown(_ context.Context) error {
	err := s.commit()
	s.cache.Clear(s.factory.ReleaseShader)
	return err
}
