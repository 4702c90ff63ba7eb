package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docsense/features/job"
	"docsense/internal/chunks"
)

// Mocks

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockExtractor struct{ mock.Mock }

func (m *MockExtractor) Extract(ctx context.Context, sourceType, location string) (string, error) {
	args := m.Called(ctx, sourceType, location)
	return args.String(0), args.Error(1)
}

type MockChunkStore struct{ mock.Mock }

func (m *MockChunkStore) InsertBatch(ctx context.Context, batch []chunks.Chunk) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockChunkStore) DeleteByRef(ctx context.Context, ref chunks.SourceRef) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

type MockUpdater struct{ mock.Mock }

func (m *MockUpdater) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockUpdater) MarkCompleted(ctx context.Context, id string, chunkCount int) error {
	args := m.Called(ctx, id, chunkCount)
	return args.Error(0)
}

type MockJobRepo struct{ mock.Mock }

func (m *MockJobRepo) Save(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}
func (m *MockJobRepo) List(ctx context.Context) ([]job.Job, error)          { return nil, nil }
func (m *MockJobRepo) Get(ctx context.Context, id string) (*job.Job, error) { return nil, nil }
func (m *MockJobRepo) Delete(ctx context.Context, id string) error          { return nil }
func (m *MockJobRepo) Count(ctx context.Context) (int, error)               { return 0, nil }
