// Package httpapi is the Interaction Front-End: it decodes the inbound
// Discord interaction, replies synchronously (pong for a ping, a deferred
// ack for a command), and spawns the background plan flow so the client
// never blocks on LLM latency.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"travelagency.app/bot/internal/discord"
	"travelagency.app/bot/internal/queue"
)

// Handler holds the queue producer the front-end hands plan dispatch to.
type Handler struct {
	Producer queue.Producer
}

// HandleInteraction implements POST /api/discord/interaction. Signature
// verification runs as prior middleware (discord.VerifySignature); this
// handler only concerns itself with decoding shape and dispatch.
func (h *Handler) HandleInteraction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	interaction, err := discord.DecodeInteraction(body)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	switch {
	case interaction.IsPing():
		c.JSON(http.StatusOK, discord.PingResponse())

	case interaction.IsCommand():
		dispatch := queue.PlanDispatch{
			InteractionToken:  interaction.Token,
			ChannelID:         interaction.ChannelID,
			OriginalMessageID: interaction.ID,
			Prompt:            interaction.PromptOption(),
		}
		if err := h.Producer.Enqueue(c.Request.Context(), dispatch); err != nil {
			slog.Error("failed to enqueue plan dispatch", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, discord.DeferredResponse())

	default:
		slog.Warn("unrecognized interaction shape", "type", interaction.Type)
		c.Status(http.StatusBadRequest)
	}
}

// HealthCheck is the ambient liveness endpoint added per SPEC_FULL.md.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
