package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	sessions map[string]*Session
	history  []HistoryEntry
}

func newStubRepo() *stubRepo {
	return &stubRepo{sessions: map[string]*Session{}}
}

func (r *stubRepo) Create(ctx context.Context, s *Session) error {
	s.ID = "sess1"
	s.CreatedAt = time.Now()
	r.sessions[s.ID] = s
	return nil
}

func (r *stubRepo) List(ctx context.Context) ([]Session, error) {
	var out []Session
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubRepo) Get(ctx context.Context, id string) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (r *stubRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.sessions, id)
	return nil
}

func (r *stubRepo) Count(ctx context.Context) (int, error) { return len(r.sessions), nil }

func (r *stubRepo) AppendHistory(ctx context.Context, e *HistoryEntry) error {
	r.history = append(r.history, *e)
	return nil
}

func (r *stubRepo) ListHistory(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	return r.history, nil
}

func TestHandler_Create(t *testing.T) {
	h := NewHandler(NewService(newStubRepo()))

	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"name":"HR docs"}`))
	w := httptest.NewRecorder()
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess1", resp.Data.ID)
	assert.Equal(t, "HR docs", resp.Data.Name)
}

func TestHandler_Create_MissingName(t *testing.T) {
	h := NewHandler(NewService(newStubRepo()))

	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"name":"  "}`))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Get_NotFound(t *testing.T) {
	h := NewHandler(NewService(newStubRepo()))

	req := httptest.NewRequest("GET", "/sessions/ghost", nil)
	req.SetPathValue("id", "ghost")
	w := httptest.NewRecorder()
	h.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
	assert.Contains(t, resp, "correlationId")
}

func TestHandler_DeleteAndHistory(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)
	h := NewHandler(svc)

	sess, err := svc.Create(context.Background(), "temp")
	require.NoError(t, err)
	require.NoError(t, svc.Record(context.Background(), sess.ID, "q", "a"))

	req := httptest.NewRequest("GET", "/sessions/"+sess.ID+"/history", nil)
	req.SetPathValue("id", sess.ID)
	w := httptest.NewRecorder()
	h.History(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].IsUser)

	req = httptest.NewRequest("DELETE", "/sessions/"+sess.ID, nil)
	req.SetPathValue("id", sess.ID)
	w = httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("DELETE", "/sessions/"+sess.ID, nil)
	req.SetPathValue("id", sess.ID)
	w = httptest.NewRecorder()
	h.Delete(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
