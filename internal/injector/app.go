package injector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zeusync/materials/internal/config"
	"github.com/zeusync/materials/internal/core/ecs"
	"github.com/zeusync/materials/internal/core/events/bus"
	"github.com/zeusync/materials/internal/core/loader"
	"github.com/zeusync/materials/internal/core/observability/log"
	"github.com/zeusync/materials/internal/core/systems"
	"github.com/zeusync/materials/internal/material"
	"github.com/zeusync/materials/internal/shader"
)

// App is the assembled import pipeline.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	World    *ecs.World
	Events   bus.EventBus
	Importer *material.ImportSystem
	Compiler *shader.CompileSystem
	Runner   *systems.Runner

	// requests rejected by the importer, collected from failure events
	failed    map[ecs.EntityID]error
	pending   []ecs.EntityID
	submitted []Result
}

// Result is the outcome of one submitted request.
type Result struct {
	Entity  ecs.EntityID
	Address string
	Status  material.RequestStatus
	Err     error
}

func NewApp(
	cfg *config.Config,
	logger *log.Logger,
	world *ecs.World,
	events bus.EventBus,
	importer *material.ImportSystem,
	compiler *shader.CompileSystem,
	runner *systems.Runner,
) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		World:    world,
		Events:   events,
		Importer: importer,
		Compiler: compiler,
		Runner:   runner,
		failed:   make(map[ecs.EntityID]error),
	}
	_, err := events.Subscribe(material.EventRequestFailed, func(ev bus.Event) error {
		if re, ok := ev.Data().(material.RequestEvent); ok {
			a.failed[re.Entity] = re.Err
			a.pending = append(a.pending, re.Entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.NewWithConfig(cfg.LogConfig())
}

// ProvideLoader builds the transport selected by cfg. The cleanup closes it.
func ProvideLoader(ctx context.Context, cfg *config.Config) (loader.Loader, func(), error) {
	switch cfg.Loader.Kind {
	case config.LoaderFile:
		l := loader.NewFileLoader(ctx, cfg.Loader.Root, cfg.Loader.Workers)
		return l, closer(l), nil
	case config.LoaderWebSocket:
		l, err := loader.DialWebSocketLoader(ctx, cfg.Loader.URL)
		if err != nil {
			return nil, nil, err
		}
		return l, closer(l), nil
	default:
		return nil, nil, fmt.Errorf("unknown loader kind %q", cfg.Loader.Kind)
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}

func ProvideCompileSystem(world *ecs.World, ld loader.Loader, events bus.EventBus, logger log.Log, cfg *config.Config) *shader.CompileSystem {
	return shader.NewCompileSystem(world, ld, events, logger).WithDefines(cfg.Shader.Defines)
}

// ProvideRunner registers the pipeline systems: import, shader compilation,
// then end-of-tick cleanup.
func ProvideRunner(logger log.Log, importer *material.ImportSystem, compiler *shader.CompileSystem, world *ecs.World) (*systems.Runner, error) {
	r := systems.NewRunner(logger)
	for _, s := range []systems.System{importer, compiler, systems.NewCleanupSystem(world)} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Submit queues a material request for address with the configured timeout.
func (a *App) Submit(address string) (ecs.EntityID, error) {
	id, err := material.Submit(a.World, address, a.Config.Import.Timeout)
	if err != nil {
		return ecs.NoEntity, err
	}
	a.submitted = append(a.submitted, Result{Entity: id, Address: address})
	return id, nil
}

// Results reports the current outcome of every submitted request, in
// submission order. Rejected requests keep the Loading status they were
// dropped in and carry the rejection error.
func (a *App) Results() []Result {
	out := make([]Result, len(a.submitted))
	for i, r := range a.submitted {
		if err, ok := a.failed[r.Entity]; ok {
			r.Status = material.StatusLoading
			r.Err = err
		} else if req, ok := ecs.Get[material.MaterialRequest](a.World, r.Entity); ok {
			r.Status = req.Status
		}
		out[i] = r
	}
	return out
}

// Settled reports whether every request is terminal and no shader is still
// waiting for its source.
func (a *App) Settled() bool {
	done := true
	ecs.StoreOf[material.MaterialRequest](a.World).Each(func(_ ecs.EntityID, r *material.MaterialRequest) {
		if !r.Status.Terminal() {
			done = false
		}
	})
	return done && a.Compiler.Pending() == 0
}

var ErrTickLimit = errors.New("tick limit reached before all requests settled")

// Run ticks the pipeline every TickRate until it settles, ctx is done or the
// configured tick limit is hit. A rejected request never becomes terminal,
// so it is dropped after the tick that rejected it and reported as failed.
func (a *App) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.Config.Import.TickRate)
	defer ticker.Stop()

	for i := 0; !a.Settled(); i++ {
		if i >= a.Config.Import.MaxTicks {
			return ErrTickLimit
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Runner.Tick(a.Config.Import.TickRate); err != nil {
			a.Logger.Debug("tick finished with errors", log.Uint64("frame", a.Runner.Frame()), log.Error(err))
		}
		for _, id := range a.pending {
			ecs.Remove[material.MaterialRequest](a.World, id)
		}
		a.pending = a.pending[:0]

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Shutdown shuts the systems down, destroys the entities they released and
// flushes the logger.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Runner.Shutdown(ctx)
	a.World.FlushDestroyQueue()
	_ = a.Logger.Sync()
	return err
}
