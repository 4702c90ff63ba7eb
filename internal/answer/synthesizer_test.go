package answer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docsense/internal/answer"
	"docsense/internal/chunks"
	"docsense/internal/vector"
)

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestBuildPrompt(t *testing.T) {
	prompt := answer.BuildPrompt("What is the deadline?", []string{"ctx one", "ctx two"})

	assert.Contains(t, prompt, "What is the deadline?")
	assert.Contains(t, prompt, "ctx one")
	assert.Contains(t, prompt, "ctx two")
	assert.Contains(t, prompt, "based only on the information")
	assert.Contains(t, prompt, answer.SentinelVietnamese)
	assert.Contains(t, prompt, answer.SentinelEnglish)
	assert.Contains(t, prompt, "summary")
	assert.Contains(t, prompt, "same language as the question")
	assert.Contains(t, prompt, "end naturally")
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, answer.IsSentinel(answer.SentinelEnglish))
	assert.True(t, answer.IsSentinel(answer.SentinelVietnamese))
	assert.True(t, answer.IsSentinel("  "+answer.SentinelEnglish+" "))
	assert.False(t, answer.IsSentinel("The deadline is March 31."))
	assert.False(t, answer.IsSentinel(""))
}

func TestSynthesize(t *testing.T) {
	gen := new(MockGenerator)
	syn := answer.NewSynthesizer(gen)

	matches := []vector.Match{
		{Content: "The filing deadline is March 31.", Ref: chunks.DocumentRef("d1")},
		{Content: "Fees are due with the filing.", Ref: chunks.DocumentRef("d2")},
	}

	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "The filing deadline is March 31.") &&
			strings.Contains(prompt, "Fees are due with the filing.")
	})).Return("The deadline is March 31.", nil)

	got, err := syn.Synthesize(context.Background(), "What is the deadline?", matches)
	require.NoError(t, err)
	assert.Equal(t, "The deadline is March 31.", got)
	gen.AssertExpectations(t)
}

func TestSynthesize_GeneratorError(t *testing.T) {
	gen := new(MockGenerator)
	syn := answer.NewSynthesizer(gen)

	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("backend down"))

	_, err := syn.Synthesize(context.Background(), "q", nil)
	assert.Error(t, err)
}
