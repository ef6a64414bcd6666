package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the version 1 event contract every context publishes and
// consumes. Outbox relays forward it verbatim, consumers dedup on EventID,
// and Data stays raw JSON so producers can evolve payloads without a new
// envelope version.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}
