package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	walleterrors "flow/contexts/finance-core/wallet-service/domain/errors"
	wallethttp "flow/contexts/finance-core/wallet-service/transport/http"
)

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.wallet.Handler.GetBalanceHandler(r.Context(), userID)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeWalletError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.wallet.Handler.ListTransactionsHandler(r.Context(), userID, limit)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req wallethttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWalletError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.wallet.Handler.RequestWithdrawalHandler(r.Context(), userID, req)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleInitiateDeposit(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req wallethttp.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWalletError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.wallet.Handler.InitiateDepositHandler(r.Context(), userID, req)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	resp, err := s.wallet.Handler.ListBanksHandler(r.Context())
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	resp, err := s.wallet.Handler.ListBankAccountsHandler(r.Context(), userID)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddBankAccount(w http.ResponseWriter, r *http.Request) {
	userID := identityFromRequest(r)
	if userID == "" {
		writeWalletError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	var req wallethttp.AddBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeWalletError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.wallet.Handler.AddBankAccountHandler(r.Context(), userID, req)
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListEscrowEntries(w http.ResponseWriter, r *http.Request) {
	resp, err := s.wallet.Handler.ListEscrowEntriesHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeWalletDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeWalletDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, walleterrors.ErrInvalidInput):
		writeWalletError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, walleterrors.ErrInsufficientFunds):
		writeWalletError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, walleterrors.ErrVerificationRequired):
		writeWalletError(w, http.StatusForbidden, "verification_required", err.Error())
	case errors.Is(err, walleterrors.ErrBankAccountUnverified):
		writeWalletError(w, http.StatusForbidden, "bank_account_unverified", err.Error())
	case errors.Is(err, walleterrors.ErrTransactionNotFound),
		errors.Is(err, walleterrors.ErrBankAccountNotFound),
		errors.Is(err, walleterrors.ErrProfileNotFound):
		writeWalletError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, walleterrors.ErrDuplicateReference),
		errors.Is(err, walleterrors.ErrConflict):
		writeWalletError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, walleterrors.ErrGatewayUnavailable),
		errors.Is(err, walleterrors.ErrGatewayRejected):
		writeWalletError(w, http.StatusBadGateway, "gateway_error", err.Error())
	default:
		writeWalletError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeWalletError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, wallethttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
