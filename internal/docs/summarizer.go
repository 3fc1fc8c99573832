package docs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hazuki-io/gemcord/internal/chat"
)

const (
	// MaxSummaryChars caps summary output at the platform message ceiling.
	MaxSummaryChars = 2000
	// MaxSummaryInput caps the raw text sent to the backend at 4x the output
	// ceiling. Longer documents are truncated head-first, deterministically.
	MaxSummaryInput = 4 * MaxSummaryChars

	summaryInstruction = "Summarize the following document briefly, focusing on main points."
)

// Summarizer produces bounded summaries of extracted document text through
// the completion backend.
type Summarizer struct {
	provider chat.Provider
	logger   *slog.Logger
}

// NewSummarizer creates a Summarizer backed by the given provider.
func NewSummarizer(log *slog.Logger, provider chat.Provider) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{
		provider: provider,
		logger:   log.With(slog.String("service", "summarizer")),
	}
}

// Summarize requests a summary of rawText, capped at MaxSummaryChars. Empty
// input is an *ExtractionError; a backend failure propagates as the
// provider's *chat.BackendError rather than an empty summary, which would be
// indistinguishable from "no content".
func (s *Summarizer) Summarize(ctx context.Context, rawText string) (string, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return "", &ExtractionError{Reason: "empty document text"}
	}
	rawText = chat.Truncate(rawText, MaxSummaryInput)

	result, err := s.provider.Complete(ctx, chat.Request{
		System:   summaryInstruction,
		Messages: []chat.Message{{Role: "user", Content: rawText}},
	})
	if err != nil {
		return "", err
	}

	summary := chat.Truncate(result.Text, MaxSummaryChars)
	s.logger.Debug("document summarized",
		slog.Int("input_chars", len(rawText)),
		slog.Int("summary_chars", len(summary)),
	)
	return summary, nil
}
