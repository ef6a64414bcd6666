package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	walleterrors "flow/contexts/finance-core/wallet-service/domain/errors"
	projecterrors "flow/contexts/project-funding/project-service/domain/errors"
	projecthttp "flow/contexts/project-funding/project-service/transport/http"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	clientID := identityFromRequest(r)
	if clientID == "" {
		writeProjectError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req projecthttp.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProjectError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.projects.Handler.CreateProjectHandler(r.Context(), clientID, req)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListClientProjects(w http.ResponseWriter, r *http.Request) {
	clientID := identityFromRequest(r)
	if clientID == "" {
		writeProjectError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.projects.Handler.ListClientProjectsHandler(r.Context(), clientID)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	resp, err := s.projects.Handler.GetProjectHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjectAudits(w http.ResponseWriter, r *http.Request) {
	resp, err := s.projects.Handler.ListProjectAuditsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFundProject(w http.ResponseWriter, r *http.Request) {
	clientID := identityFromRequest(r)
	if clientID == "" {
		writeProjectError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.projects.Handler.FundProjectHandler(r.Context(), r.PathValue("project_id"), clientID)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeProjectDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projecterrors.ErrInvalidProjectInput):
		writeProjectError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, projecterrors.ErrProjectNotFound):
		writeProjectError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, projecterrors.ErrProjectStateInvalid),
		errors.Is(err, projecterrors.ErrEscrowAlreadyLocked),
		errors.Is(err, projecterrors.ErrConflict):
		writeProjectError(w, http.StatusConflict, "conflict", err.Error())
	// funding delegates to the finance context; surface its ledger verdicts
	case errors.Is(err, walleterrors.ErrInsufficientFunds):
		writeProjectError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, walleterrors.ErrGatewayUnavailable),
		errors.Is(err, walleterrors.ErrGatewayRejected):
		writeProjectError(w, http.StatusBadGateway, "gateway_error", err.Error())
	default:
		writeProjectError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProjectError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, projecthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
