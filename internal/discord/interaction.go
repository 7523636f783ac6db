package discord

import (
	"encoding/json"
)

// interactionType mirrors Discord's InteractionType enum; only ping (1) and
// application command (2) are relevant to this surface.
type interactionType int

const (
	interactionTypePing               interactionType = 1
	interactionTypeApplicationCommand interactionType = 2
)

// responseType mirrors Discord's InteractionResponseType enum.
type responseType int

const (
	responseTypePong                             responseType = 1
	responseTypeDeferredChannelMessageWithSource responseType = 5
)

// Interaction is the inbound payload decoded from the request body.
type Interaction struct {
	Type      interactionType `json:"type"`
	ID        string          `json:"id"`
	Token     string          `json:"token"`
	ChannelID string          `json:"channel_id"`
	Data      struct {
		Options []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
	} `json:"data"`
}

// InteractionResponse is the synchronous reply returned to Discord.
type InteractionResponse struct {
	Type responseType `json:"type"`
}

// PromptOption returns the first string option's value, used as the
// free-form travel request text.
func (i Interaction) PromptOption() string {
	if len(i.Data.Options) == 0 {
		return ""
	}
	return i.Data.Options[0].Value
}

// DecodeInteraction parses the raw request body. A decode failure here is
// distinguished from "not a recognized shape" by the caller: json.Unmarshal
// failing outright means the body wasn't even valid JSON.
func DecodeInteraction(body []byte) (Interaction, error) {
	var interaction Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		return Interaction{}, err
	}
	return interaction, nil
}

// PingResponse is the literal {"type":1} reply to a ping interaction.
func PingResponse() InteractionResponse {
	return InteractionResponse{Type: responseTypePong}
}

// DeferredResponse acknowledges a command interaction while the plan flow
// runs in the background.
func DeferredResponse() InteractionResponse {
	return InteractionResponse{Type: responseTypeDeferredChannelMessageWithSource}
}

// IsPing reports whether the decoded interaction is a ping.
func (i Interaction) IsPing() bool {
	return i.Type == interactionTypePing
}

// IsCommand reports whether the decoded interaction is a command invocation.
func (i Interaction) IsCommand() bool {
	return i.Type == interactionTypeApplicationCommand
}
