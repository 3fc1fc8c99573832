package discord

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsBotMentioned(t *testing.T) {
	botID := "123456"

	msg := &discordgo.Message{
		Content:  "hello there",
		Mentions: []*discordgo.User{{ID: botID}},
	}
	assert.True(t, isBotMentioned(msg, botID))

	msg = &discordgo.Message{Content: "<@123456> what is AI?"}
	assert.True(t, isBotMentioned(msg, botID))

	msg = &discordgo.Message{Content: "<@!123456> what is AI?"}
	assert.True(t, isBotMentioned(msg, botID))

	msg = &discordgo.Message{
		Content:  "talking about someone else",
		Mentions: []*discordgo.User{{ID: "999"}},
	}
	assert.False(t, isBotMentioned(msg, botID))

	assert.False(t, isBotMentioned(nil, botID))
}

func TestStripBotMention(t *testing.T) {
	assert.Equal(t, "what is AI?", stripBotMention("<@123> what is AI?", "123"))
	assert.Equal(t, "what is AI?", stripBotMention("<@!123> what is AI?", "123"))
	assert.Equal(t, "plain text", stripBotMention("plain text", "123"))
	assert.Equal(t, "", stripBotMention("<@123>", "123"))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 2000))

	long := strings.Repeat("a", 4500)
	chunks := splitMessage(long, 2000)
	assert.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2000)
	assert.Len(t, chunks[1], 2000)
	assert.Len(t, chunks[2], 500)
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestNewGatewayRequiresToken(t *testing.T) {
	_, err := NewGateway(nil, "  ")
	assert.Error(t, err)
}
