// Package bot implements the per-message response pipeline: it decides what
// context to send to the completion backend, bounds it, and keeps the
// conversation store consistent.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/hazuki-io/gemcord/internal/chat"
	"github.com/hazuki-io/gemcord/internal/conversation"
	"github.com/hazuki-io/gemcord/internal/docs"
)

// MaxReplyChars is the platform message-size ceiling applied to every
// outgoing reply regardless of model output length.
const MaxReplyChars = 2000

// Fixed user-visible texts. Raw failure detail goes to the log, never here.
const (
	replyDocumentFailed = "Sorry, I could not process that document."
	replyBackendFailed  = "Sorry, something went wrong while generating a reply. Please try again later."
	replyImageGenDenied = "Image generation is not supported by this bot. Contact an administrator to enable a compatible model."

	defaultDocumentQuestion = "Summarize the attached document."
)

// ValidationError reports an inbound event missing required fields. Purely
// defensive; the gateway should never surface such events.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid event: " + e.Reason
}

// Attachment is one file carried by an inbound event. Open fetches the raw
// bytes on demand so unused attachments cost nothing.
type Attachment struct {
	Filename string
	Open     func(ctx context.Context) ([]byte, error)
}

// Event is an inbound message event as surfaced by the platform gateway.
type Event struct {
	MessageID        string
	AuthorID         string
	ChannelID        string
	Text             string
	Attachments      []Attachment
	IsMentionOrReply bool
}

// Summarizer produces a bounded summary of extracted document text.
type Summarizer interface {
	Summarize(ctx context.Context, rawText string) (string, error)
}

// Typing signals the transient processing indicator to the messaging layer.
// Fire and forget; the pipeline does not own its lifecycle.
type Typing func(channelID string)

// Pipeline orchestrates one inbound event into at most one outgoing reply.
// All cross-message state lives in the conversation store.
type Pipeline struct {
	logger     *slog.Logger
	provider   chat.Provider
	store      *conversation.Store
	summarizer Summarizer
	extract    func(data []byte) (string, error)
	typing     Typing
}

// NewPipeline wires the pipeline to its collaborators. extract and typing may
// be nil, disabling document handling and the typing signal respectively.
func NewPipeline(
	log *slog.Logger,
	provider chat.Provider,
	store *conversation.Store,
	summarizer Summarizer,
	extract func(data []byte) (string, error),
	typing Typing,
) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		logger:     log.With(slog.String("service", "pipeline")),
		provider:   provider,
		store:      store,
		summarizer: summarizer,
		extract:    extract,
		typing:     typing,
	}
}

// Process handles one inbound event. The returned text is ready to send and
// already bounded to MaxReplyChars; ok is false when the event should be
// ignored entirely. Process never returns an error: every failure kind is
// converted here to a fixed user-visible message plus one error-level log.
func (p *Pipeline) Process(ctx context.Context, ev Event) (reply string, ok bool) {
	log := p.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("user_id", ev.AuthorID),
		slog.String("channel_id", ev.ChannelID),
	)

	if err := validate(ev); err != nil {
		log.Error("event rejected", slog.Any("error", err))
		return "", false
	}
	// The gateway is responsible for surfacing only mentions and replies to
	// the bot; drop anything else that slips through.
	if !ev.IsMentionOrReply {
		return "", false
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" && len(ev.Attachments) == 0 {
		return "", false
	}

	if p.typing != nil {
		p.typing(ev.ChannelID)
	}

	key := conversation.Key{UserID: ev.AuthorID, ChannelID: ev.ChannelID}

	if att, kind := firstHandledAttachment(ev.Attachments); kind == docs.KindImage {
		// Acknowledgments carry no semantic content for future turns and are
		// not persisted.
		return fmt.Sprintf("Image uploaded: %s (analysis not supported)", att.Filename), true
	} else if kind == docs.KindPDF {
		summary, err := p.summarizeAttachment(ctx, att)
		if err != nil {
			log.Error("document processing failed",
				slog.String("filename", att.Filename),
				slog.String("kind", errorKind(err)),
				slog.Any("error", err),
			)
			return replyDocumentFailed, true
		}
		return p.respond(ctx, log, key, text, summary)
	}

	if chat.DetectIntent(text) == chat.IntentImageGeneration {
		return replyImageGenDenied, true
	}
	if text == "" {
		return "", false
	}
	return p.respond(ctx, log, key, text, "")
}

// respond assembles the prompt from history, the optional document summary,
// and the current text, invokes the backend, and on success records the
// exchange. Failed completions never touch history.
func (p *Pipeline) respond(ctx context.Context, log *slog.Logger, key conversation.Key, text, docSummary string) (string, bool) {
	if text == "" {
		text = defaultDocumentQuestion
	}
	userContent := text
	if docSummary != "" {
		userContent = fmt.Sprintf("Context from the attached document:\n%s\n\nUser question:\n%s", docSummary, text)
	}

	history := p.store.History(key)
	messages := make([]chat.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, chat.Message{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, chat.Message{Role: conversation.RoleUser, Content: userContent})

	result, err := p.provider.Complete(ctx, chat.Request{
		System:   chat.AnswerPolicy(text),
		Messages: messages,
	})
	if err != nil {
		log.Error("completion failed", slog.Any("error", err))
		return replyBackendFailed, true
	}

	replyText := chat.Truncate(result.Text, MaxReplyChars)
	p.store.Append(key,
		conversation.Turn{Role: conversation.RoleUser, Text: userContent},
		conversation.Turn{Role: conversation.RoleAssistant, Text: replyText},
	)

	log.Info("reply produced",
		slog.String("model", result.Model),
		slog.Int("history_turns", p.store.Len(key)),
		slog.Int("reply_chars", len(replyText)),
	)
	return replyText, true
}

func (p *Pipeline) summarizeAttachment(ctx context.Context, att Attachment) (string, error) {
	if p.extract == nil || p.summarizer == nil || att.Open == nil {
		return "", &docs.ExtractionError{Reason: "document handling not configured"}
	}
	data, err := att.Open(ctx)
	if err != nil {
		return "", &docs.ExtractionError{Reason: fmt.Sprintf("fetch attachment: %v", err)}
	}
	raw, err := p.extract(data)
	if err != nil {
		return "", err
	}
	return p.summarizer.Summarize(ctx, raw)
}

// firstHandledAttachment returns the first attachment that is a PDF or an
// image, matching how a user attaches one meaningful file per message.
// Unsupported attachments are skipped.
func firstHandledAttachment(attachments []Attachment) (Attachment, docs.Kind) {
	for _, att := range attachments {
		switch kind := docs.Classify(att.Filename); kind {
		case docs.KindPDF, docs.KindImage:
			return att, kind
		}
	}
	return Attachment{}, docs.KindUnsupported
}

func validate(ev Event) error {
	if strings.TrimSpace(ev.AuthorID) == "" {
		return &ValidationError{Reason: "author id is required"}
	}
	if strings.TrimSpace(ev.ChannelID) == "" {
		return &ValidationError{Reason: "channel id is required"}
	}
	return nil
}

// errorKind labels an error for logs without leaking raw detail to users.
func errorKind(err error) string {
	var extractionErr *docs.ExtractionError
	if errors.As(err, &extractionErr) {
		return "extraction"
	}
	var backendErr *chat.BackendError
	if errors.As(err, &backendErr) {
		return "backend"
	}
	return "internal"
}
