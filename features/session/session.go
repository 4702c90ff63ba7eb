package session

import (
	"context"
	"time"
)

// Session is a workspace: sources, chunks, and chat history all hang
// off one. Deleting a session cascades to everything under it.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one line of a session's chat transcript. IsUser
// distinguishes the question from the generated answer.
type HistoryEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	IsUser    bool      `json:"is_user"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, s *Session) error
	List(ctx context.Context) ([]Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)

	AppendHistory(ctx context.Context, e *HistoryEntry) error
	ListHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (*Session, error) {
	sess := &Session{Name: name}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context) ([]Session, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	if _, err := s.repo.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, sessionID)
}

// Record appends one question/answer pair to the transcript.
func (s *Service) Record(ctx context.Context, sessionID, question, answer string) error {
	if err := s.repo.AppendHistory(ctx, &HistoryEntry{SessionID: sessionID, IsUser: true, Message: question}); err != nil {
		return err
	}
	return s.repo.AppendHistory(ctx, &HistoryEntry{SessionID: sessionID, IsUser: false, Message: answer})
}
