package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TaskType    string `json:"task_type"`
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency,omitempty"`
}

type ProjectResponse struct {
	ProjectID      string `json:"project_id"`
	ClientID       string `json:"client_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	TaskType       string `json:"task_type"`
	TotalAmount    string `json:"total_amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	EscrowLocked   bool   `json:"escrow_locked"`
	TotalUnits     int    `json:"total_units"`
	CompletedUnits int    `json:"completed_units"`
}

type ProjectListResponse struct {
	Items []ProjectResponse `json:"items"`
}

type ProjectAuditResponse struct {
	AuditID   string `json:"audit_id"`
	ProjectID string `json:"project_id"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type ProjectAuditListResponse struct {
	Items []ProjectAuditResponse `json:"items"`
}
