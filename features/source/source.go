package source

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"docsense/internal/chunks"
	"docsense/internal/config"
	"docsense/internal/middleware"
	"docsense/internal/worker"
)

const (
	TypeFile = "file"
	TypeLink = "link"
)

// Source is one grounding input of a session: an uploaded file or a
// registered URL. Location is the stored file path or the URL.
// ChunkCount is written by the ingestion worker when it finishes.
type Source struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	ContentHash string    `json:"-"`
	Status      string    `json:"status"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ref maps the source onto the chunk reference space.
func (s *Source) Ref() chunks.SourceRef {
	if s.Type == TypeLink {
		return chunks.LinkRef(s.ID)
	}
	return chunks.DocumentRef(s.ID)
}

type Repository interface {
	Save(ctx context.Context, src *Source) error
	ExistsByHash(ctx context.Context, sessionID, hash string) (bool, error)
	Get(ctx context.Context, id string) (*Source, error)
	ListBySession(ctx context.Context, sessionID string) ([]Source, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type ChunkStore interface {
	DeleteByRef(ctx context.Context, ref chunks.SourceRef) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	pub        EventPublisher
	chunkStore ChunkStore
}

func NewService(repo Repository, pub EventPublisher, chunkStore ChunkStore) *Service {
	return &Service{repo: repo, pub: pub, chunkStore: chunkStore}
}

// CreateLink registers an URL source and queues it for ingestion.
func (s *Service) CreateLink(ctx context.Context, sessionID, name, url string) (*Source, error) {
	hash := sha256.Sum256([]byte(url))

	src := &Source{
		SessionID:   sessionID,
		Type:        TypeLink,
		Name:        name,
		Location:    url,
		ContentHash: fmt.Sprintf("%x", hash),
		Status:      "in_progress",
	}
	return s.register(ctx, src)
}

// Upload registers an already-stored file. The handler writes the file
// to disk and computes the hash while streaming it.
func (s *Service) Upload(ctx context.Context, sessionID, path, hash, name string) (*Source, error) {
	src := &Source{
		SessionID:   sessionID,
		Type:        TypeFile,
		Name:        name,
		Location:    path,
		ContentHash: hash,
		Status:      "in_progress",
	}
	return s.register(ctx, src)
}

func (s *Service) register(ctx context.Context, src *Source) (*Source, error) {
	// Dedup is per session: the same handbook in two sessions is fine.
	exists, err := s.repo.ExistsByHash(ctx, src.SessionID, src.ContentHash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("Duplicate detected")
	}

	if err := s.repo.Save(ctx, src); err != nil {
		return nil, err
	}

	s.publishIngest(ctx, src, false)
	return src, nil
}

func (s *Service) List(ctx context.Context, sessionID string) ([]Source, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

func (s *Service) Get(ctx context.Context, id string) (*Source, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the source row and every chunk derived from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.chunkStore.DeleteByRef(ctx, src.Ref()); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ReSync queues a fresh ingestion run. The worker replaces the chunks,
// so stale content never survives next to new content.
func (s *Service) ReSync(ctx context.Context, id string) error {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, "in_progress"); err != nil {
		return err
	}

	s.publishIngest(ctx, src, true)
	return nil
}

func (s *Service) publishIngest(ctx context.Context, src *Source, resync bool) {
	payload, _ := json.Marshal(worker.IngestTaskPayload{
		SourceID:      src.ID,
		SessionID:     src.SessionID,
		Type:          src.Type,
		Location:      src.Location,
		Resync:        resync,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest.task event", "error", err, "source_id", src.ID)
	} else {
		slog.InfoContext(ctx, "published ingest.task event", "source_id", src.ID, "type", src.Type)
	}
}
