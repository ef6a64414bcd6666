package commands

import (
	"encoding/json"
	"time"

	"flow/contexts/task-lifecycle/task-engine/ports"
)

const (
	EventProjectAtomized = "project.atomized"
	EventTaskAssigned    = "task.assigned"
	EventTaskSubmitted   = "task.submitted"
	EventTaskCompleted   = "task.completed"
	EventTaskDisputed    = "task.disputed"
)

func newTaskEnvelope(
	eventID string,
	eventType string,
	taskID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Engine events are partitioned by task so per-unit consumers observe
	// transitions in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "task-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "task_id",
		PartitionKey:     taskID,
		Data:             payload,
	}, nil
}
