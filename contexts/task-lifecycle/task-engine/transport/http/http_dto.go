package http

import "encoding/json"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AtomizeProjectRequest struct {
	UnitCount         int    `json:"unit_count,omitempty"`
	Strategy          string `json:"strategy,omitempty"`
	RequiredPeers     int    `json:"required_peers,omitempty"`
	RequiredApprovals int    `json:"required_approvals,omitempty"`
}

type AtomizeProjectResponse struct {
	ProjectID string         `json:"project_id"`
	UnitCount int            `json:"unit_count"`
	Tasks     []TaskResponse `json:"tasks"`
}

type GeoPointDTO struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

type SubmitTaskRequest struct {
	Payload        json.RawMessage `json:"payload,omitempty"`
	Photos         []string        `json:"photos,omitempty"`
	Location       *GeoPointDTO    `json:"location,omitempty"`
	SupervisorCode string          `json:"supervisor_code,omitempty"`
}

type ValidateTaskRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

type ValidateTaskResponse struct {
	TaskID      string `json:"task_id"`
	ValidatorID string `json:"validator_id"`
	Verdict     string `json:"verdict"`
	Decision    string `json:"decision"`
}

type TaskResponse struct {
	TaskID               string `json:"task_id"`
	ProjectID            string `json:"project_id"`
	UnitIndex            int    `json:"unit_index"`
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	TaskType             string `json:"task_type"`
	PayAmount            string `json:"pay_amount"`
	Currency             string `json:"currency"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds,omitempty"`
	Strategy             string `json:"strategy"`
	Status               string `json:"status"`
	AssigneeID           string `json:"assignee_id,omitempty"`
}

type TaskListResponse struct {
	Items []TaskResponse `json:"items"`
}

type ValidationResponse struct {
	ValidationID string `json:"validation_id"`
	TaskID       string `json:"task_id"`
	ValidatorID  string `json:"validator_id"`
	Verdict      string `json:"verdict"`
	Notes        string `json:"notes,omitempty"`
}

type ValidationListResponse struct {
	Items []ValidationResponse `json:"items"`
}
