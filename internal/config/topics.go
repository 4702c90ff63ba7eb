package config

const (
	// TopicIngestTask is the NSQ topic for source ingestion tasks (files and links).
	TopicIngestTask = "ingest.task"

	// ChannelIngest is the consumer channel for the ingestion worker.
	ChannelIngest = "ingestion-worker"
)
