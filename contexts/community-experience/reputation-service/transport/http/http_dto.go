package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ReputationResponse struct {
	UserID          string  `json:"user_id"`
	CompletedTasks  int     `json:"completed_tasks"`
	ReputationScore float64 `json:"reputation_score"`
	Tier            int     `json:"tier"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}
