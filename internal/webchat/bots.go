package webchat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/nextchat-ai-platform/internal/conversation"
)

// Bot is an embeddable chatbot and the owner whose calendar it books into.
type Bot struct {
	ID      string                  `json:"-"`
	UserID  string                  `json:"userId"`
	Profile conversation.BotProfile `json:"profile"`
}

// BotDirectory resolves the bot id carried by the widget.
type BotDirectory interface {
	LookupBot(botID string) (Bot, bool)
}

// StaticDirectory is a BotDirectory loaded once at startup.
type StaticDirectory map[string]Bot

// ParseBotDirectory decodes a JSON object keyed by bot id, e.g.
// {"acme":{"userId":"u1","profile":{"name":"Acme Bot"}}}. Empty input yields an
// empty directory.
func ParseBotDirectory(raw string) (StaticDirectory, error) {
	dir := StaticDirectory{}
	if strings.TrimSpace(raw) == "" {
		return dir, nil
	}
	if err := json.Unmarshal([]byte(raw), &dir); err != nil {
		return nil, fmt.Errorf("webchat: parse bot directory: %w", err)
	}
	for id, bot := range dir {
		bot.ID = id
		dir[id] = bot
	}
	return dir, nil
}

func (d StaticDirectory) LookupBot(botID string) (Bot, bool) {
	bot, ok := d[botID]
	return bot, ok
}

// LookupOwner implements conversation.OwnerDirectory.
func (d StaticDirectory) LookupOwner(botID string) (string, bool) {
	bot, ok := d[botID]
	return bot.UserID, ok
}
