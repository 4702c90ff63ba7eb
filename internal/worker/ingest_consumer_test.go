package worker_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docsense/features/job"
	"docsense/internal/chunks"
	"docsense/internal/worker"
)

func newIngestor(ex *MockExtractor, e *MockEmbedder, s *MockChunkStore, u *MockUpdater, j *MockJobRepo) *worker.Ingestor {
	return worker.NewIngestor(ex, e, s, u, j, worker.IngestorConfig{ChunkSize: 1000, Overlap: 150})
}

func taskMessage(t *testing.T, payload worker.IngestTaskPayload) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &nsq.Message{Body: body}
}

func TestIngestor_HandleMessage(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	j := new(MockJobRepo)
	consumer := newIngestor(ex, e, s, u, j)

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "file",
		Location:  "/uploads/policy.txt",
	})

	ex.On("Extract", mock.Anything, "file", "/uploads/policy.txt").
		Return("Leave requests must be submitted by March 31.", nil)
	e.On("Embed", mock.Anything, "Leave requests must be submitted by March 31.").
		Return([]float32{0.1, 0.2}, nil)
	s.On("InsertBatch", mock.Anything, mock.MatchedBy(func(batch []chunks.Chunk) bool {
		return len(batch) == 1 &&
			batch[0].SessionID == "sess1" &&
			batch[0].Ref == chunks.DocumentRef("src1") &&
			batch[0].Text == "Leave requests must be submitted by March 31."
	})).Return(nil)
	u.On("MarkCompleted", mock.Anything, "src1", 1).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err)
	ex.AssertExpectations(t)
	e.AssertExpectations(t)
	s.AssertExpectations(t)
	u.AssertExpectations(t)
}

func TestIngestor_PoisonPill(t *testing.T) {
	consumer := newIngestor(new(MockExtractor), new(MockEmbedder), new(MockChunkStore), new(MockUpdater), new(MockJobRepo))

	msg := &nsq.Message{Body: []byte("invalid json")}

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err) // Should return nil (ack)
}

func TestIngestor_MissingFields(t *testing.T) {
	ex := new(MockExtractor)
	consumer := newIngestor(ex, new(MockEmbedder), new(MockChunkStore), new(MockUpdater), new(MockJobRepo))

	msg := taskMessage(t, worker.IngestTaskPayload{SourceID: "src1"})

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err)
	ex.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestor_ExtractionFailed(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	u := new(MockUpdater)
	j := new(MockJobRepo)
	consumer := newIngestor(ex, e, new(MockChunkStore), u, j)

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "link",
		Location:  "http://example.com/gone",
	})

	ex.On("Extract", mock.Anything, "link", "http://example.com/gone").
		Return("", errors.New("status 404"))
	u.On("UpdateStatus", mock.Anything, "src1", "failed").Return(nil)
	j.On("Save", mock.Anything, mock.MatchedBy(func(fj *job.Job) bool {
		return fj.SourceID == "src1" && fj.Error == "status 404"
	})).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err) // Extraction failures are not requeued
	e.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	u.AssertExpectations(t)
	j.AssertExpectations(t)
}

func TestIngestor_EmptyContentCompletesWithZeroChunks(t *testing.T) {
	ex := new(MockExtractor)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	consumer := newIngestor(ex, new(MockEmbedder), s, u, new(MockJobRepo))

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "file",
		Location:  "/uploads/report.pdf",
	})

	ex.On("Extract", mock.Anything, "file", "/uploads/report.pdf").Return("", nil)
	u.On("MarkCompleted", mock.Anything, "src1", 0).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err)
	s.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	u.AssertExpectations(t)
}

func TestIngestor_EmbedFailureRequeuesWithoutPartialPersist(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	j := new(MockJobRepo)
	consumer := newIngestor(ex, e, s, u, j)

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "file",
		Location:  "/uploads/policy.txt",
	})
	msg.Attempts = 1

	ex.On("Extract", mock.Anything, "file", "/uploads/policy.txt").Return("some content", nil)
	e.On("Embed", mock.Anything, "some content").Return(nil, errors.New("quota exceeded"))

	err := consumer.HandleMessage(msg)
	assert.Error(t, err) // Requeue
	s.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	// The failure row is reserved for the final delivery; earlier
	// attempts just go back on the queue.
	j.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestIngestor_EmbedFailureFinalAttemptRecordsJob(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	j := new(MockJobRepo)
	consumer := newIngestor(ex, e, s, u, j)

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "file",
		Location:  "/uploads/policy.txt",
	})
	msg.Attempts = 5 // delivery budget exhausted

	ex.On("Extract", mock.Anything, "file", "/uploads/policy.txt").Return("some content", nil)
	e.On("Embed", mock.Anything, "some content").Return(nil, errors.New("quota exceeded"))
	u.On("UpdateStatus", mock.Anything, "src1", "failed").Return(nil)
	j.On("Save", mock.Anything, mock.MatchedBy(func(fj *job.Job) bool {
		return fj.SourceID == "src1" && fj.Error == "quota exceeded"
	})).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err) // Ack: the failed_jobs row owns the retry now
	s.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	u.AssertExpectations(t)
	j.AssertExpectations(t)
}

func TestIngestor_DimensionMismatchIsNotRequeued(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	j := new(MockJobRepo)
	consumer := worker.NewIngestor(ex, e, s, u, j, worker.IngestorConfig{
		ChunkSize:    1000,
		Overlap:      150,
		EmbeddingDim: 3,
	})

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "src1",
		SessionID: "sess1",
		Type:      "file",
		Location:  "/uploads/policy.txt",
	})

	ex.On("Extract", mock.Anything, "file", "/uploads/policy.txt").Return("some content", nil)
	e.On("Embed", mock.Anything, "some content").Return([]float32{0.1, 0.2}, nil)
	u.On("UpdateStatus", mock.Anything, "src1", "failed").Return(nil)
	j.On("Save", mock.Anything, mock.MatchedBy(func(fj *job.Job) bool {
		return fj.SourceID == "src1" && fj.Error == "embedding dimension mismatch: got 2, want 3"
	})).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err) // Redelivery cannot fix a model mismatch
	s.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	u.AssertExpectations(t)
	j.AssertExpectations(t)
}

func TestIngestor_ResyncDeletesExistingChunks(t *testing.T) {
	ex := new(MockExtractor)
	e := new(MockEmbedder)
	s := new(MockChunkStore)
	u := new(MockUpdater)
	consumer := newIngestor(ex, e, s, u, new(MockJobRepo))

	msg := taskMessage(t, worker.IngestTaskPayload{
		SourceID:  "lnk1",
		SessionID: "sess1",
		Type:      "link",
		Location:  "http://example.com/handbook",
		Resync:    true,
	})

	ex.On("Extract", mock.Anything, "link", "http://example.com/handbook").Return("fresh content", nil)
	s.On("DeleteByRef", mock.Anything, chunks.LinkRef("lnk1")).Return(nil)
	e.On("Embed", mock.Anything, "fresh content").Return([]float32{0.3}, nil)
	s.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)
	u.On("MarkCompleted", mock.Anything, "lnk1", 1).Return(nil)

	err := consumer.HandleMessage(msg)
	assert.NoError(t, err)
	s.AssertExpectations(t)
}
