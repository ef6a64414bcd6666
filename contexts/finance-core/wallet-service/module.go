package walletservice

import (
	"log/slog"

	httpadapter "flow/contexts/finance-core/wallet-service/adapters/http"
	"flow/contexts/finance-core/wallet-service/adapters/memory"
	"flow/contexts/finance-core/wallet-service/application/commands"
	"flow/contexts/finance-core/wallet-service/application/queries"
	"flow/contexts/finance-core/wallet-service/application/workers"
	"flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"
)

// DefaultKYCThreshold is the withdrawal amount at or above which an
// unverified identity is rejected.
const DefaultKYCThreshold = "50000"

type Module struct {
	Handler httpadapter.Handler
	Escrow  commands.EscrowUseCase
	Store   *memory.Store
	Gateway *memory.Gateway
}

type Dependencies struct {
	Ledger       ports.LedgerStore
	Escrow       ports.EscrowStore
	Accounts     ports.BankAccountStore
	Profiles     ports.ProfileStore
	Gateway      ports.PaymentGateway
	Outbox       ports.OutboxWriter
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	KYCThreshold money.Money
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	threshold := deps.KYCThreshold
	if !threshold.Amount.IsPositive() {
		threshold, _ = money.FromString(DefaultKYCThreshold, money.DefaultCurrency)
	}
	withdrawUseCase := commands.WithdrawUseCase{
		Ledger:       deps.Ledger,
		Accounts:     deps.Accounts,
		Profiles:     deps.Profiles,
		Outbox:       deps.Outbox,
		Clock:        deps.Clock,
		IDGen:        deps.IDGen,
		KYCThreshold: threshold,
		Logger:       deps.Logger,
	}
	depositUseCase := commands.DepositUseCase{
		Ledger:  deps.Ledger,
		Gateway: deps.Gateway,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	bankUseCase := commands.BankAccountUseCase{
		Accounts: deps.Accounts,
		Gateway:  deps.Gateway,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	escrowUseCase := commands.EscrowUseCase{
		Ledger: deps.Ledger,
		Escrow: deps.Escrow,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	walletQueries := queries.WalletQueries{
		Ledger:   deps.Ledger,
		Accounts: deps.Accounts,
		Escrow:   deps.Escrow,
		Gateway:  deps.Gateway,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Withdrawals:  withdrawUseCase,
			Deposits:     depositUseCase,
			BankAccounts: bankUseCase,
			Queries:      walletQueries,
			Logger:       deps.Logger,
		},
		Escrow: escrowUseCase,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	gateway := memory.NewGateway()
	module := NewModule(Dependencies{
		Ledger:   store,
		Escrow:   store,
		Accounts: store,
		Profiles: store,
		Gateway:  gateway,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	module.Gateway = gateway
	return module
}

func NewWithdrawalProcessor(deps Dependencies, alerts ports.AlertSink, logger *slog.Logger) workers.WithdrawalProcessor {
	return workers.WithdrawalProcessor{
		Ledger:   deps.Ledger,
		Accounts: deps.Accounts,
		Gateway:  deps.Gateway,
		Outbox:   deps.Outbox,
		Alerts:   alerts,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   logger,
	}
}

func NewOutboxRelay(outbox ports.OutboxRepository, publisher ports.EventPublisher, clock ports.Clock, logger *slog.Logger) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    outbox,
		Publisher: publisher,
		Clock:     clock,
		Logger:    logger,
	}
}

func NewDepositReconciler(deps Dependencies, logger *slog.Logger) workers.DepositReconciler {
	return workers.DepositReconciler{
		Ledger:  deps.Ledger,
		Gateway: deps.Gateway,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  logger,
	}
}

func NewTransferReconciler(deps Dependencies, alerts ports.AlertSink, logger *slog.Logger) workers.TransferReconciler {
	return workers.TransferReconciler{
		Ledger:  deps.Ledger,
		Gateway: deps.Gateway,
		Outbox:  deps.Outbox,
		Alerts:  alerts,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  logger,
	}
}
