package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	reputationservice "flow/contexts/community-experience/reputation-service"
	walletservice "flow/contexts/finance-core/wallet-service"
	projectservice "flow/contexts/project-funding/project-service"
	taskengine "flow/contexts/task-lifecycle/task-engine"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "flow/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	tasks      taskengine.Module
	projects   projectservice.Module
	wallet     walletservice.Module
	reputation reputationservice.Module
}

func New(
	tasks taskengine.Module,
	projects projectservice.Module,
	wallet walletservice.Module,
	reputation reputationservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		tasks:      tasks,
		projects:   projects,
		wallet:     wallet,
		reputation: reputation,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /api/tasks/available", s.handleListAvailableTasks)
	s.mux.HandleFunc("GET /api/tasks/{task_id}", s.handleGetTask)
	s.mux.HandleFunc("GET /api/tasks/{task_id}/validations", s.handleListTaskValidations)
	s.mux.HandleFunc("POST /api/tasks/{task_id}/accept", s.handleAcceptTask)
	s.mux.HandleFunc("POST /api/tasks/{task_id}/submit", s.handleSubmitTask)
	s.mux.HandleFunc("POST /api/tasks/{task_id}/validate", s.handleValidateTask)

	s.mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/projects", s.handleListClientProjects)
	s.mux.HandleFunc("GET /api/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("GET /api/projects/{project_id}/tasks", s.handleListProjectTasks)
	s.mux.HandleFunc("GET /api/projects/{project_id}/audits", s.handleListProjectAudits)
	s.mux.HandleFunc("GET /api/projects/{project_id}/escrow", s.handleListEscrowEntries)
	s.mux.HandleFunc("POST /api/projects/{project_id}/fund", s.handleFundProject)
	s.mux.HandleFunc("POST /api/projects/{project_id}/atomize", s.handleAtomizeProject)

	s.mux.HandleFunc("GET /api/wallet/balance", s.handleGetBalance)
	s.mux.HandleFunc("GET /api/wallet/transactions", s.handleListTransactions)
	s.mux.HandleFunc("POST /api/wallet/deposit", s.handleInitiateDeposit)
	s.mux.HandleFunc("POST /api/wallet/withdraw", s.handleWithdraw)
	s.mux.HandleFunc("GET /api/wallet/banks", s.handleListBanks)
	s.mux.HandleFunc("GET /api/wallet/bank-accounts", s.handleListBankAccounts)
	s.mux.HandleFunc("POST /api/wallet/bank-accounts", s.handleAddBankAccount)

	s.mux.HandleFunc("GET /api/reputation/{user_id}", s.handleGetReputation)
}

func identityFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
