package reputationservice

import (
	"log/slog"

	httpadapter "flow/contexts/community-experience/reputation-service/adapters/http"
	"flow/contexts/community-experience/reputation-service/adapters/memory"
	"flow/contexts/community-experience/reputation-service/application/commands"
	"flow/contexts/community-experience/reputation-service/application/queries"
	"flow/contexts/community-experience/reputation-service/application/workers"
	"flow/contexts/community-experience/reputation-service/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Recompute commands.RecomputeUseCase
	Store     *memory.Store
}

type Dependencies struct {
	Profiles ports.ReputationRepository
	Dedup    ports.EventDedupStore
	Clock    ports.Clock
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recomputeUseCase := commands.RecomputeUseCase{
		Profiles: deps.Profiles,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	reputationQueries := queries.ReputationQueries{
		Profiles: deps.Profiles,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Queries: reputationQueries,
			Logger:  deps.Logger,
		},
		Recompute: recomputeUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Profiles: store,
		Dedup:    store,
		Clock:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}

func NewCompletionConsumer(deps Dependencies, subscriber ports.EventSubscriber, logger *slog.Logger) workers.CompletionConsumer {
	return workers.CompletionConsumer{
		Subscriber: subscriber,
		Dedup:      deps.Dedup,
		Recompute: commands.RecomputeUseCase{
			Profiles: deps.Profiles,
			Clock:    deps.Clock,
			Logger:   logger,
		},
		Clock:  deps.Clock,
		Logger: logger,
	}
}
