package ask

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/chunks"
)

func doAsk(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/sessions/sess1/ask", strings.NewReader(body))
	req.SetPathValue("id", "sess1")
	w := httptest.NewRecorder()
	h.Ask(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHandler_Ask(t *testing.T) {
	cl := new(MockChunkLister)
	e := new(MockEmbedder)
	g := new(MockGenerator)
	h := new(MockHistory)
	handler := NewHandler(newService(cl, e, g, h, nil))

	cl.On("ListByScope", mock.Anything, "sess1", []string{"doc1"}, []string(nil)).
		Return(scopedChunks(), nil)
	e.On("Embed", mock.Anything, mock.Anything).Return([]float32{1, 0}, nil)
	g.On("Generate", mock.Anything, mock.Anything).
		Return("Leave requests must be submitted by March 31.", nil)
	h.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	w := doAsk(t, handler, `{"question":"When is the leave deadline?","document_ids":["doc1"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Answer  string            `json:"answer"`
			Sources []json.RawMessage `json:"sources"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Leave requests must be submitted by March 31.", resp.Data.Answer)
	require.Len(t, resp.Data.Sources, 1)

	var ref chunks.SourceRef
	require.NoError(t, json.Unmarshal(resp.Data.Sources[0], &ref))
	assert.Equal(t, chunks.DocumentRef("doc1"), ref)
}

func TestHandler_Ask_Validation(t *testing.T) {
	handler := NewHandler(newService(new(MockChunkLister), new(MockEmbedder), new(MockGenerator), new(MockHistory), nil))

	t.Run("empty question", func(t *testing.T) {
		w := doAsk(t, handler, `{"question":"","document_ids":["doc1"]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("empty selection", func(t *testing.T) {
		w := doAsk(t, handler, `{"question":"When?"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
	})

	t.Run("bad json", func(t *testing.T) {
		w := doAsk(t, handler, `{not json`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Ask_EmptyScope(t *testing.T) {
	cl := new(MockChunkLister)
	handler := NewHandler(newService(cl, new(MockEmbedder), new(MockGenerator), new(MockHistory), nil))

	cl.On("ListByScope", mock.Anything, "sess1", []string{"doc1"}, []string(nil)).
		Return([]chunks.Chunk{}, nil)

	w := doAsk(t, handler, `{"question":"When?","document_ids":["doc1"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_SCOPE", errorCode(t, w))
}

func TestHandler_Ask_UpstreamError(t *testing.T) {
	cl := new(MockChunkLister)
	e := new(MockEmbedder)
	handler := NewHandler(newService(cl, e, new(MockGenerator), new(MockHistory), nil))

	cl.On("ListByScope", mock.Anything, "sess1", []string{"doc1"}, []string(nil)).
		Return(scopedChunks(), nil)
	e.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	w := doAsk(t, handler, `{"question":"When?","document_ids":["doc1"]}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, w))
}
