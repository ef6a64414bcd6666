package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BalanceResponse struct {
	UserID   string `json:"user_id"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

type WithdrawRequest struct {
	Amount        string `json:"amount"`
	Currency      string `json:"currency,omitempty"`
	BankAccountID string `json:"bank_account_id"`
}

type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	EntryType     string `json:"entry_type"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Description   string `json:"description,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
}

type DepositRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Email    string `json:"email"`
}

type DepositResponse struct {
	Transaction      TransactionResponse `json:"transaction"`
	AuthorizationURL string              `json:"authorization_url"`
}

type AddBankAccountRequest struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number"`
}

type BankAccountResponse struct {
	AccountID     string `json:"account_id"`
	UserID        string `json:"user_id"`
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Verified      bool   `json:"verified"`
}

type BankAccountListResponse struct {
	Items []BankAccountResponse `json:"items"`
}

type BankResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type BankListResponse struct {
	Items []BankResponse `json:"items"`
}

type EscrowEntryResponse struct {
	EntryID   string `json:"entry_id"`
	ProjectID string `json:"project_id"`
	EntryType string `json:"entry_type"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
}

type EscrowEntryListResponse struct {
	Items []EscrowEntryResponse `json:"items"`
}
