package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/market_intel/app/gateway/internal/repo"
	"github.com/iWorld-y/market_intel/app/gateway/internal/service"
	"github.com/iWorld-y/market_intel/app/gateway/internal/usecase"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/engine"
)

// ProviderSet 是网关服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Engine providers
	NewAgentEngine,
	wire.Bind(new(repo.MarketAgent), new(*engine.Engine)),

	// UseCase providers
	usecase.NewMarketUseCase,

	// Service providers
	service.NewMarketService,
)
