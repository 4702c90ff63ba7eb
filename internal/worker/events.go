package worker

// IngestTaskPayload is the body published to ingest.task when a source
// is registered, uploaded, or resynced. Location is a stored file path
// for file sources and an URL for link sources.
type IngestTaskPayload struct {
	SourceID      string `json:"source_id"`
	SessionID     string `json:"session_id"`
	Type          string `json:"type"`
	Location      string `json:"location"`
	Resync        bool   `json:"resync,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
