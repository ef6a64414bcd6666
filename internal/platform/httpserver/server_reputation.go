package httpserver

import (
	"errors"
	"net/http"

	reputationerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	reputationhttp "flow/contexts/community-experience/reputation-service/transport/http"
)

func (s *Server) handleGetReputation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.reputation.Handler.GetReputationHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeReputationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeReputationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reputationerrors.ErrInvalidInput):
		writeReputationError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, reputationerrors.ErrProfileNotFound):
		writeReputationError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.Is(err, reputationerrors.ErrConflict):
		writeReputationError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeReputationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReputationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, reputationhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
