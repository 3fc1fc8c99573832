// Package discord connects the response pipeline to the Discord gateway:
// event subscription, mention/reply gating, attachment download, the typing
// indicator, and outbound delivery.
package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hazuki-io/gemcord/internal/bot"
)

const (
	// maxMessageChars is Discord's message-size ceiling.
	maxMessageChars = 2000
	// maxAttachmentBytes caps attachment downloads from the CDN.
	maxAttachmentBytes int64 = 25 * 1024 * 1024

	attachmentFetchTimeout = 30 * time.Second
)

// Processor handles one inbound event and produces at most one reply.
type Processor interface {
	Process(ctx context.Context, ev bot.Event) (reply string, ok bool)
}

// Gateway owns the discordgo session and translates Discord message-create
// events into pipeline events.
type Gateway struct {
	logger        *slog.Logger
	session       *discordgo.Session
	processor     Processor
	httpClient    *http.Client
	removeHandler func()
}

// NewGateway creates a Gateway for the given bot token. The processor is
// attached separately to keep construction free of wiring cycles (the
// pipeline's typing signal points back at the gateway).
func NewGateway(log *slog.Logger, token string) (*Gateway, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Gateway{
		logger:     log.With(slog.String("adapter", "discord")),
		session:    session,
		httpClient: &http.Client{Timeout: attachmentFetchTimeout},
	}, nil
}

// SetProcessor attaches the event processor. Must be called before Start.
func (g *Gateway) SetProcessor(p Processor) {
	g.processor = p
}

// Start registers the message handler and opens the gateway connection.
// Each inbound message is handled in its own goroutine; a failure processing
// one message never affects the event loop.
func (g *Gateway) Start(ctx context.Context) error {
	if g.processor == nil {
		return fmt.Errorf("processor is not attached")
	}

	g.removeHandler = g.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		if ctx.Err() != nil {
			return
		}
		go g.handleMessage(ctx, s, m.Message)
	})

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("discord open connection: %w", err)
	}
	g.logger.Info("connected", slog.String("bot_user", g.session.State.User.Username))
	return nil
}

// Stop removes the handler and closes the session.
func (g *Gateway) Stop() error {
	if g.removeHandler != nil {
		g.removeHandler()
		g.removeHandler = nil
	}
	return g.session.Close()
}

// Typing signals the typing indicator for a channel. Fire and forget.
func (g *Gateway) Typing(channelID string) {
	if err := g.session.ChannelTyping(channelID); err != nil {
		g.logger.Debug("typing signal failed", slog.String("channel_id", channelID), slog.Any("error", err))
	}
}

func (g *Gateway) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.Message) {
	botID := s.State.User.ID

	isMentioned := isBotMentioned(m, botID)
	isReplyToBot := m.ReferencedMessage != nil &&
		m.ReferencedMessage.Author != nil &&
		m.ReferencedMessage.Author.ID == botID

	ev := bot.Event{
		MessageID:        m.ID,
		AuthorID:         m.Author.ID,
		ChannelID:        m.ChannelID,
		Text:             stripBotMention(m.Content, botID),
		Attachments:      g.collectAttachments(m),
		IsMentionOrReply: isMentioned || isReplyToBot,
	}

	reply, ok := g.processor.Process(ctx, ev)
	if !ok || reply == "" {
		return
	}
	g.send(m.ChannelID, reply)
}

func (g *Gateway) send(channelID, text string) {
	for _, chunk := range splitMessage(text, maxMessageChars) {
		if _, err := g.session.ChannelMessageSend(channelID, chunk); err != nil {
			g.logger.Error("send failed", slog.String("channel_id", channelID), slog.Any("error", err))
			return
		}
	}
}

func (g *Gateway) collectAttachments(m *discordgo.Message) []bot.Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	attachments := make([]bot.Attachment, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		url := att.URL
		attachments = append(attachments, bot.Attachment{
			Filename: att.Filename,
			Open: func(ctx context.Context) ([]byte, error) {
				return g.fetchAttachment(ctx, url)
			},
		})
	}
	return attachments
}

func (g *Gateway) fetchAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("attachment download: http status %d", resp.StatusCode)
	}

	limited := &io.LimitedReader{R: resp.Body, N: maxAttachmentBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxAttachmentBytes {
		return nil, fmt.Errorf("attachment too large: max %d bytes", maxAttachmentBytes)
	}
	return data, nil
}

// isBotMentioned reports whether the message mentions the bot, either through
// the mentions list or a raw <@id> / <@!id> token in the content.
func isBotMentioned(m *discordgo.Message, botID string) bool {
	if m == nil {
		return false
	}
	for _, mention := range m.Mentions {
		if mention != nil && mention.ID == botID {
			return true
		}
	}
	content := strings.ToLower(m.Content)
	return strings.Contains(content, "<@"+strings.ToLower(botID)+">") ||
		strings.Contains(content, "<@!"+strings.ToLower(botID)+">")
}

// stripBotMention removes the bot's mention tokens from the message text.
func stripBotMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

// splitMessage chunks text into pieces of at most limit characters. The
// pipeline already bounds replies, so this normally yields a single chunk.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
