package workers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"flow/contexts/task-lifecycle/task-engine/ports"
)

func newEngineEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	partitionKeyPath string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
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
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}

func hashPayload(payload []byte) string {
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}
