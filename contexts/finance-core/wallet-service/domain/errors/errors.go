package errors

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid wallet input")
	ErrInsufficientFunds     = errors.New("insufficient wallet balance")
	ErrVerificationRequired  = errors.New("identity verification required for this amount")
	ErrTransactionNotFound   = errors.New("wallet transaction not found")
	ErrBankAccountNotFound   = errors.New("bank account not found")
	ErrBankAccountUnverified = errors.New("bank account is not verified")
	ErrDuplicateReference    = errors.New("ledger reference already used")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrGatewayRejected       = errors.New("payment gateway rejected the request")
	ErrProfileNotFound       = errors.New("user profile not found")
	ErrConflict              = errors.New("wallet service conflict")
)
