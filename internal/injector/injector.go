//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/materials/internal/config"
	"github.com/zeusync/materials/internal/core/ecs"
	"github.com/zeusync/materials/internal/core/events/bus"
	"github.com/zeusync/materials/internal/core/observability/log"
	"github.com/zeusync/materials/internal/material"
	"github.com/zeusync/materials/internal/shader"
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		ProvideLogger,
		wire.Bind(new(log.Log), new(*log.Logger)),
		ecs.NewWorld,
		bus.New,
		ProvideLoader,
		shader.NewFactory,
		wire.Bind(new(material.ShaderFactory), new(*shader.Factory)),
		material.NewImportSystem,
		ProvideCompileSystem,
		ProvideRunner,
		NewApp,
	)
	return nil, nil, nil
}
