package docs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazuki-io/gemcord/internal/chat"
)

type stubProvider struct {
	lastRequest chat.Request
	result      chat.Result
	err         error
}

func (p *stubProvider) Complete(_ context.Context, req chat.Request) (chat.Result, error) {
	p.lastRequest = req
	return p.result, p.err
}

func TestSummarizeEmptyTextIsExtractionError(t *testing.T) {
	s := NewSummarizer(nil, &stubProvider{})

	_, err := s.Summarize(context.Background(), "   \n ")
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestSummarizeCapsInput(t *testing.T) {
	provider := &stubProvider{result: chat.Result{Text: "a summary"}}
	s := NewSummarizer(nil, provider)

	long := strings.Repeat("word ", 5000)
	summary, err := s.Summarize(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, "a summary", summary)

	require.Len(t, provider.lastRequest.Messages, 1)
	sent := provider.lastRequest.Messages[0].Content
	assert.LessOrEqual(t, len([]rune(sent)), MaxSummaryInput)
	assert.Equal(t, summaryInstruction, provider.lastRequest.System)
}

func TestSummarizeCapsOutput(t *testing.T) {
	provider := &stubProvider{result: chat.Result{Text: strings.Repeat("s", 2001)}}
	s := NewSummarizer(nil, provider)

	summary, err := s.Summarize(context.Background(), "some document text")
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(summary)), MaxSummaryChars)
}

func TestSummarizeBackendErrorPropagates(t *testing.T) {
	provider := &stubProvider{err: &chat.BackendError{Reason: "quota exceeded"}}
	s := NewSummarizer(nil, provider)

	_, err := s.Summarize(context.Background(), "some document text")
	var backendErr *chat.BackendError
	require.True(t, errors.As(err, &backendErr))
}
