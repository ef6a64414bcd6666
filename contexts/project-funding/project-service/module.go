package projectservice

import (
	"log/slog"

	httpadapter "flow/contexts/project-funding/project-service/adapters/http"
	"flow/contexts/project-funding/project-service/adapters/memory"
	"flow/contexts/project-funding/project-service/application/commands"
	"flow/contexts/project-funding/project-service/application/queries"
	"flow/contexts/project-funding/project-service/application/workers"
	"flow/contexts/project-funding/project-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Projects ports.ProjectRepository
	Escrow   ports.EscrowFunder
	Outbox   ports.OutboxWriter
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	projectUseCase := commands.ProjectUseCase{
		Projects: deps.Projects,
		Escrow:   deps.Escrow,
		Outbox:   deps.Outbox,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	projectQueries := queries.ProjectQueries{
		Projects: deps.Projects,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Projects: projectUseCase,
			Queries:  projectQueries,
			Logger:   deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Projects: store,
		Escrow:   store,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}

func NewOutboxRelay(outbox ports.OutboxRepository, publisher ports.EventPublisher, clock ports.Clock, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		Logger:    logger,
	}
}
