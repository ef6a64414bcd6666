package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	taskerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	taskhttp "flow/contexts/task-lifecycle/task-engine/transport/http"
)

func (s *Server) handleListAvailableTasks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeTaskError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.tasks.Handler.ListAvailableTasksHandler(r.Context(), limit)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tasks.Handler.GetTaskHandler(r.Context(), r.PathValue("task_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTaskValidations(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tasks.Handler.ListTaskValidationsHandler(r.Context(), r.PathValue("task_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	workerID := identityFromRequest(r)
	if workerID == "" {
		writeTaskError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.tasks.Handler.AcceptTaskHandler(r.Context(), r.PathValue("task_id"), workerID)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	workerID := identityFromRequest(r)
	if workerID == "" {
		writeTaskError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req taskhttp.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaskError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tasks.Handler.SubmitTaskHandler(r.Context(), r.PathValue("task_id"), workerID, req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleValidateTask(w http.ResponseWriter, r *http.Request) {
	validatorID := identityFromRequest(r)
	if validatorID == "" {
		writeTaskError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req taskhttp.ValidateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaskError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tasks.Handler.ValidateTaskHandler(r.Context(), r.PathValue("task_id"), validatorID, req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAtomizeProject(w http.ResponseWriter, r *http.Request) {
	actorID := identityFromRequest(r)
	if actorID == "" {
		writeTaskError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req taskhttp.AtomizeProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTaskError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.tasks.Handler.AtomizeProjectHandler(r.Context(), r.PathValue("project_id"), actorID, req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjectTasks(w http.ResponseWriter, r *http.Request) {
	resp, err := s.tasks.Handler.ListProjectTasksHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTaskDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskerrors.ErrInvalidInput):
		writeTaskError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, taskerrors.ErrEvidenceMissing):
		writeTaskError(w, http.StatusBadRequest, "evidence_missing", err.Error())
	case errors.Is(err, taskerrors.ErrTaskNotFound),
		errors.Is(err, taskerrors.ErrProjectNotFound),
		errors.Is(err, taskerrors.ErrSubmissionNotFound),
		errors.Is(err, taskerrors.ErrWorkerNotFound):
		writeTaskError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, taskerrors.ErrAlreadyTaken):
		writeTaskError(w, http.StatusConflict, "already_taken", err.Error())
	case errors.Is(err, taskerrors.ErrAssignmentLimit):
		writeTaskError(w, http.StatusConflict, "assignment_limit", err.Error())
	case errors.Is(err, taskerrors.ErrPreconditionFailed):
		writeTaskError(w, http.StatusConflict, "precondition_failed", err.Error())
	case errors.Is(err, taskerrors.ErrDuplicateValidation):
		writeTaskError(w, http.StatusConflict, "duplicate_validation", err.Error())
	case errors.Is(err, taskerrors.ErrConflict):
		writeTaskError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, taskerrors.ErrIneligible):
		writeTaskError(w, http.StatusForbidden, "ineligible", err.Error())
	default:
		writeTaskError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTaskError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, taskhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
