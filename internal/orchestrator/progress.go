package orchestrator

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"travelagency.app/bot/internal/discord"
)

// progressEmbed is the single shared message whose description is mutated
// as the plan advances, held under one mutex by the scheduler and every
// worker it spawns.
type progressEmbed struct {
	mu        sync.Mutex
	chat      *discord.Client
	channelID string
	messageID string
	lines     []string
}

// postProgress sends the initial "Execution Plan" embed.
func postProgress(chat *discord.Client, channelID, analysis string, taskCount int) (*progressEmbed, error) {
	description := fmt.Sprintf("%s\n\nTasks: %d", analysis, taskCount)

	msg, err := chat.SendEmbed(channelID, &discordgo.MessageEmbed{
		Title:       "Execution Plan",
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("posting progress embed: %w", err)
	}

	return &progressEmbed{
		chat:      chat,
		channelID: channelID,
		messageID: msg.ID,
		lines:     []string{description},
	}, nil
}

// Append appends one line to the embed description and re-edits it.
// Each mutation happens under the lock so concurrent workers never
// interleave partial edits.
func (p *progressEmbed) Append(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lines = append(p.lines, line)
	description := ""
	for i, l := range p.lines {
		if i > 0 {
			description += "\n"
		}
		description += l
	}

	_, err := p.chat.EditMessage(p.channelID, p.messageID, &discordgo.MessageEmbed{
		Title:       "Execution Plan",
		Description: description,
	})
	if err != nil {
		// A failed progress-embed edit narrates a worker's own state
		// transition, not the plan's terminal delivery path, so it is
		// logged rather than treated as a fatal step per §7 (the "any"
		// chat-surface row governs the greeting/thread/final-result path).
		slog.Warn("progress embed edit failed", "channel_id", p.channelID, "message_id", p.messageID, "error", err)
	}
}
