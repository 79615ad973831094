package fx

import (
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/combat"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/config"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/database"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/logger"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/repository"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/server"
	"github.com/RobertTeunissen/ArmouredSouls-sub003/internal/service"

	"go.uber.org/fx"
)

func ProvideBoutResolver() combat.BoutResolver {
	return combat.NewSimulator()
}

func ProvideMessageGenerator() combat.MessageGenerator {
	return combat.NewAnnouncer()
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// combat
	fx.Provide(ProvideBoutResolver),
	fx.Provide(ProvideMessageGenerator),
	// repos
	fx.Provide(repository.NewRobotRepository),
	fx.Provide(repository.NewStableRepository),
	fx.Provide(repository.NewTeamRepository),
	fx.Provide(repository.NewMatchRepository),
	fx.Provide(repository.NewBattleRepository),
	fx.Provide(repository.NewSettlementRepository),
	fx.Provide(repository.NewCycleRepository),
	// svc
	fx.Provide(service.NewTeamService),
	fx.Provide(service.NewMatchmakingService),
	fx.Provide(service.NewBattleService),
	fx.Provide(service.NewSettlementService),
	fx.Provide(service.NewOrchestratorService),
	// server
	fx.Provide(server.NewArenaServer),
)
