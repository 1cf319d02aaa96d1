//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/flowdash/internal/bootstrap"
	"github.com/yanqian/flowdash/internal/domain/chat"
	"github.com/yanqian/flowdash/internal/domain/deploy"
	"github.com/yanqian/flowdash/internal/domain/preview"
	"github.com/yanqian/flowdash/internal/domain/toolkit"
	"github.com/yanqian/flowdash/internal/infra/config"
	httpiface "github.com/yanqian/flowdash/internal/interface/http"
	"github.com/yanqian/flowdash/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		provideLogger,
		metrics.NewRecorder,
		providePostgresPool,
		provideValkeyClient,
		provideSpecStore,
		provideClientRepository,
		provideEventRepository,
		provideThreadRepository,
		provideArchive,
		provideQueue,
		provideJobQueue,
		provideTokenCounter,
		toolkit.NewRegistry,
		provideToolRunner,
		provideChatRunner,
		provideSpecGenerator,
		provideDeployConfig,
		providePreviewConfig,
		provideChatConfig,
		provideClientDirectory,
		deploy.NewService,
		wire.Struct(new(preview.Dependencies), "*"),
		preview.NewService,
		chat.NewService,
		wire.Bind(new(chat.ProgressSource), new(*toolkit.Registry)),
		wire.Bind(new(httpiface.ToolCatalog), new(*toolkit.Registry)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
