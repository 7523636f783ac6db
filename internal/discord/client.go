// Package discord is the Chat Surface Adapter: a thin wrapper over
// bwmarrin/discordgo exposing exactly the operations the orchestrator needs
// (editOriginalResponse, sendMessage, editMessage, createThreadFromMessage,
// currentAppInfo), plus the Ed25519 signature middleware and interaction
// decoding for the front-end route.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Client is the Chat Surface Adapter used by the front-end and orchestrator.
type Client struct {
	session       *discordgo.Session
	applicationID string
}

// New constructs a Client authenticated with the bot token. The session is
// used purely for REST calls here; no gateway connection is opened since
// this service only ever responds to inbound interaction webhooks.
func New(botToken, applicationID string) (*Client, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("constructing discord session: %w", err)
	}
	return &Client{session: session, applicationID: applicationID}, nil
}

// EditOriginalResponse edits the deferred response for an interaction,
// used to deliver the greeting message (or a planner-failure diagnostic).
func (c *Client) EditOriginalResponse(interactionToken, content string) (*discordgo.Message, error) {
	edit := &discordgo.WebhookEdit{Content: &content}
	msg, err := c.session.InteractionResponseEdit(&discordgo.Interaction{
		AppID: c.applicationID,
		Token: interactionToken,
	}, edit)
	if err != nil {
		return nil, fmt.Errorf("editing original response: %w", err)
	}
	return msg, nil
}

// SendMessage posts a new message to a channel or thread, used by the
// Final-Result Sender to post each chunk in order.
func (c *Client) SendMessage(channelID, content string) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return nil, fmt.Errorf("sending message to %s: %w", channelID, err)
	}
	return msg, nil
}

// EditMessage replaces the embed of an existing message, used by the
// scheduler to mutate the progress embed's description.
func (c *Client) EditMessage(channelID, messageID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetEmbed(embed)
	msg, err := c.session.ChannelMessageEditComplex(edit)
	if err != nil {
		return nil, fmt.Errorf("editing message %s: %w", messageID, err)
	}
	return msg, nil
}

// SendEmbed posts the initial progress embed, returning the handle the
// scheduler then mutates via EditMessage.
func (c *Client) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	msg, err := c.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return nil, fmt.Errorf("sending embed to %s: %w", channelID, err)
	}
	return msg, nil
}

// CreateThreadFromMessage opens a thread anchored to the greeting message,
// named by a separate, higher-temperature naming call.
func (c *Client) CreateThreadFromMessage(channelID, messageID, name string) (*discordgo.Channel, error) {
	thread, err := c.session.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: 1440,
	})
	if err != nil {
		return nil, fmt.Errorf("creating thread from message %s: %w", messageID, err)
	}
	return thread, nil
}

// CurrentAppInfo resolves the application info for the configured
// APPLICATION_ID. Nothing in the server calls it at startup.
func (c *Client) CurrentAppInfo() (*discordgo.Application, error) {
	app, err := c.session.Application(c.applicationID)
	if err != nil {
		return nil, fmt.Errorf("fetching application info: %w", err)
	}
	return app, nil
}
