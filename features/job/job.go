package job

import (
	"encoding/json"
	"time"
)

// Job is a dead-lettered ingestion task. Payload holds the original
// ingest.task body verbatim so a retry republishes exactly what the
// worker saw.
type Job struct {
	ID        string          `json:"id"`
	SourceID  string          `json:"source_id"`
	Handler   string          `json:"handler"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Retries   int             `json:"retries"`
	CreatedAt time.Time       `json:"created_at"`
}
