package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazuki-io/gemcord/internal/chat"
	"github.com/hazuki-io/gemcord/internal/conversation"
	"github.com/hazuki-io/gemcord/internal/docs"
)

type fakeProvider struct {
	calls    int
	requests []chat.Request
	result   chat.Result
	err      error
}

func (p *fakeProvider) Complete(_ context.Context, req chat.Request) (chat.Result, error) {
	p.calls++
	p.requests = append(p.requests, req)
	return p.result, p.err
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *fakeSummarizer) Summarize(_ context.Context, rawText string) (string, error) {
	s.calls++
	return s.summary, s.err
}

type fixture struct {
	pipeline   *Pipeline
	provider   *fakeProvider
	summarizer *fakeSummarizer
	store      *conversation.Store
	typed      []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider:   &fakeProvider{result: chat.Result{Text: "the answer", Model: "gemini-test"}},
		summarizer: &fakeSummarizer{summary: "a short summary"},
		store:      conversation.NewStore(nil),
	}
	extract := func(data []byte) (string, error) {
		if len(data) == 0 {
			return "", &docs.ExtractionError{Reason: "no extractable text"}
		}
		return string(data), nil
	}
	f.pipeline = NewPipeline(nil, f.provider, f.store, f.summarizer, extract, func(channelID string) {
		f.typed = append(f.typed, channelID)
	})
	return f
}

func mention(text string) Event {
	return Event{
		MessageID:        "m1",
		AuthorID:         "u1",
		ChannelID:        "c1",
		Text:             text,
		IsMentionOrReply: true,
	}
}

func withAttachment(ev Event, filename string, data []byte) Event {
	ev.Attachments = append(ev.Attachments, Attachment{
		Filename: filename,
		Open:     func(context.Context) ([]byte, error) { return data, nil },
	})
	return ev
}

func TestPlainQuery(t *testing.T) {
	f := newFixture(t)

	reply, ok := f.pipeline.Process(context.Background(), mention("What is AI?"))
	require.True(t, ok)
	assert.Equal(t, "the answer", reply)
	assert.Equal(t, 1, f.provider.calls)
	assert.Equal(t, []string{"c1"}, f.typed)

	// Short-answer policy for a simple question.
	assert.Contains(t, f.provider.requests[0].System, "350")

	history := f.store.History(conversation.Key{UserID: "u1", ChannelID: "c1"})
	require.Len(t, history, 2)
	assert.Equal(t, conversation.Turn{Role: conversation.RoleUser, Text: "What is AI?"}, history[0])
	assert.Equal(t, conversation.Turn{Role: conversation.RoleAssistant, Text: "the answer"}, history[1])
}

func TestHistoryFlowsIntoNextRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := f.pipeline.Process(ctx, mention("first question"))
	require.True(t, ok)
	_, ok = f.pipeline.Process(ctx, mention("second question"))
	require.True(t, ok)

	require.Equal(t, 2, f.provider.calls)
	second := f.provider.requests[1]
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "first question", second.Messages[0].Content)
	assert.Equal(t, "the answer", second.Messages[1].Content)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "second question", second.Messages[2].Content)
}

func TestPDFAttachmentSummaryAsContext(t *testing.T) {
	f := newFixture(t)

	ev := withAttachment(mention("what does it say?"), "notes.pdf", []byte("raw pdf text"))
	reply, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	assert.Equal(t, "the answer", reply)
	assert.Equal(t, 1, f.summarizer.calls)
	assert.Equal(t, 1, f.provider.calls)

	sent := f.provider.requests[0].Messages[0].Content
	assert.Contains(t, sent, "a short summary")
	assert.Contains(t, sent, "what does it say?")

	history := f.store.History(conversation.Key{UserID: "u1", ChannelID: "c1"})
	require.Len(t, history, 2)
	assert.Contains(t, history[0].Text, "a short summary")
}

func TestPDFWithoutText(t *testing.T) {
	f := newFixture(t)

	ev := withAttachment(mention("what does it say?"), "scan.pdf", nil)
	reply, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	assert.Equal(t, replyDocumentFailed, reply)
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.store.Len(conversation.Key{UserID: "u1", ChannelID: "c1"}))
}

func TestSummarizerBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.summarizer.summary = ""
	f.summarizer.err = &chat.BackendError{Reason: "quota exceeded"}

	ev := withAttachment(mention("what does it say?"), "notes.pdf", []byte("raw"))
	reply, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	assert.Equal(t, replyDocumentFailed, reply)
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.store.Len(conversation.Key{UserID: "u1", ChannelID: "c1"}))
}

func TestImageAttachmentAcknowledged(t *testing.T) {
	f := newFixture(t)

	ev := withAttachment(mention("look at this"), "photo.jpg", []byte{1, 2, 3})
	reply, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	assert.Equal(t, "Image uploaded: photo.jpg (analysis not supported)", reply)
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.store.Len(conversation.Key{UserID: "u1", ChannelID: "c1"}))
}

func TestImageGenerationRequestDenied(t *testing.T) {
	f := newFixture(t)

	reply, ok := f.pipeline.Process(context.Background(), mention("generate image of a cat"))
	require.True(t, ok)
	assert.Equal(t, replyImageGenDenied, reply)
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.store.Len(conversation.Key{UserID: "u1", ChannelID: "c1"}))
}

func TestBackendFailureLeavesHistoryUntouched(t *testing.T) {
	f := newFixture(t)
	key := conversation.Key{UserID: "u1", ChannelID: "c1"}

	_, ok := f.pipeline.Process(context.Background(), mention("seed question"))
	require.True(t, ok)
	require.Equal(t, 2, f.store.Len(key))

	f.provider.err = &chat.BackendError{Reason: "quota exceeded"}
	f.provider.result = chat.Result{}

	reply, ok := f.pipeline.Process(context.Background(), mention("doomed question"))
	require.True(t, ok)
	assert.Equal(t, replyBackendFailed, reply)
	assert.NotContains(t, reply, "quota")
	assert.Equal(t, 2, f.store.Len(key))
}

func TestLongResponseTruncated(t *testing.T) {
	f := newFixture(t)
	f.provider.result = chat.Result{Text: strings.Repeat("a", 2001)}

	reply, ok := f.pipeline.Process(context.Background(), mention("tell me everything"))
	require.True(t, ok)
	assert.LessOrEqual(t, len([]rune(reply)), MaxReplyChars)

	history := f.store.History(conversation.Key{UserID: "u1", ChannelID: "c1"})
	require.Len(t, history, 2)
	assert.LessOrEqual(t, len([]rune(history[1].Text)), MaxReplyChars)
}

func TestIgnoresNonMentions(t *testing.T) {
	f := newFixture(t)

	ev := mention("hello")
	ev.IsMentionOrReply = false
	_, ok := f.pipeline.Process(context.Background(), ev)
	assert.False(t, ok)
	assert.Zero(t, f.provider.calls)
	assert.Empty(t, f.typed)
}

func TestIgnoresEmptyEvents(t *testing.T) {
	f := newFixture(t)

	_, ok := f.pipeline.Process(context.Background(), mention("   "))
	assert.False(t, ok)
	assert.Zero(t, f.provider.calls)
}

func TestRejectsEventsMissingFields(t *testing.T) {
	f := newFixture(t)

	ev := mention("hello")
	ev.ChannelID = ""
	_, ok := f.pipeline.Process(context.Background(), ev)
	assert.False(t, ok)
	assert.Zero(t, f.provider.calls)
}

func TestUnsupportedAttachmentFallsThroughToText(t *testing.T) {
	f := newFixture(t)

	ev := withAttachment(mention("What is AI?"), "data.csv", []byte("x"))
	reply, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	assert.Equal(t, "the answer", reply)
	assert.Zero(t, f.summarizer.calls)
}

func TestBarePDFUploadGetsDefaultQuestion(t *testing.T) {
	f := newFixture(t)

	ev := withAttachment(mention(""), "notes.pdf", []byte("raw pdf text"))
	_, ok := f.pipeline.Process(context.Background(), ev)
	require.True(t, ok)
	require.Equal(t, 1, f.provider.calls)
	assert.Contains(t, f.provider.requests[0].Messages[0].Content, defaultDocumentQuestion)
}
