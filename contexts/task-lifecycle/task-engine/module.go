package taskengine

import (
	"log/slog"
	"time"

	httpadapter "flow/contexts/task-lifecycle/task-engine/adapters/http"
	"flow/contexts/task-lifecycle/task-engine/adapters/memory"
	"flow/contexts/task-lifecycle/task-engine/application/commands"
	"flow/contexts/task-lifecycle/task-engine/application/queries"
	"flow/contexts/task-lifecycle/task-engine/application/workers"
	"flow/contexts/task-lifecycle/task-engine/domain/strategy"
	"flow/contexts/task-lifecycle/task-engine/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	Atomizer     commands.AtomizeUseCase
	Verification commands.VerificationUseCase
	Store        *memory.Store
}

type Dependencies struct {
	Projects               ports.ProjectStore
	Tasks                  ports.TaskRepository
	Validations            ports.ValidationRepository
	Workers                ports.WorkerDirectory
	Settlement             ports.SettlementStore
	Outbox                 ports.OutboxWriter
	Alerts                 ports.AlertSink
	Clock                  ports.Clock
	IDGen                  ports.IDGenerator
	Checker                strategy.AIChecker
	DefaultUnitCount       int
	AssignmentCap          int
	ValidatorMinReputation float64
	Logger                 *slog.Logger
}

func NewModule(deps Dependencies) Module {
	atomizer := commands.AtomizeUseCase{
		Projects:         deps.Projects,
		Tasks:            deps.Tasks,
		Outbox:           deps.Outbox,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		DefaultUnitCount: deps.DefaultUnitCount,
		Logger:           deps.Logger,
	}
	assignments := commands.AssignmentUseCase{
		Tasks:         deps.Tasks,
		Workers:       deps.Workers,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		AssignmentCap: deps.AssignmentCap,
		Logger:        deps.Logger,
	}
	submissions := commands.SubmissionUseCase{
		Tasks:  deps.Tasks,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	verification := commands.VerificationUseCase{
		Tasks:                  deps.Tasks,
		Validations:            deps.Validations,
		Workers:                deps.Workers,
		Settlement:             deps.Settlement,
		Outbox:                 deps.Outbox,
		Alerts:                 deps.Alerts,
		Clock:                  deps.Clock,
		IDGen:                  deps.IDGen,
		Checker:                deps.Checker,
		ValidatorMinReputation: deps.ValidatorMinReputation,
		Logger:                 deps.Logger,
	}
	taskQueries := queries.TaskQueries{
		Tasks:       deps.Tasks,
		Validations: deps.Validations,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Atomizer:     atomizer,
			Assignments:  assignments,
			Submissions:  submissions,
			Verification: verification,
			Queries:      taskQueries,
			Logger:       deps.Logger,
		},
		Atomizer:     atomizer,
		Verification: verification,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Projects:               store,
		Tasks:                  store,
		Validations:            store,
		Workers:                store,
		Settlement:             store,
		Outbox:                 store,
		Clock:                  store,
		IDGen:                  store,
		DefaultUnitCount:       10,
		AssignmentCap:          5,
		ValidatorMinReputation: 4.0,
		Logger:                 logger,
	})
	module.Store = store
	return module
}

// NewOutboxRelay builds the relay worker for this module's outbox rows.
func NewOutboxRelay(outbox ports.OutboxRepository, publisher ports.EventPublisher, clock ports.Clock, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		BatchSize: 100,
		Logger:    logger,
	}
}

// NewVerificationConsumer builds the task.submitted consumer for this module.
func NewVerificationConsumer(subscriber ports.EventSubscriber, dedup ports.EventDedupStore, verifier commands.VerificationUseCase, clock ports.Clock, logger *slog.Logger) workers.VerificationConsumer {
	return workers.VerificationConsumer{
		Subscriber: subscriber,
		Dedup:      dedup,
		Verifier:   verifier,
		Clock:      clock,
		Logger:     logger,
	}
}

// NewDeadlineSweeper builds the verification deadline escalation worker.
func NewDeadlineSweeper(tasks ports.TaskRepository, outbox ports.OutboxWriter, alerts ports.AlertSink, clock ports.Clock, idGen ports.IDGenerator, deadline time.Duration, logger *slog.Logger) workers.DeadlineSweeper {
	return workers.DeadlineSweeper{
		Tasks:    tasks,
		Outbox:   outbox,
		Alerts:   alerts,
		Clock:    clock,
		IDGen:    idGen,
		Deadline: deadline,
		Logger:   logger,
	}
}
