package orchestrator

import (
	"context"
	"log/slog"

	"travelagency.app/bot/common/llm"
)

const namingTemperature = 0.9

// nameSchema is the structured output of the thread-naming call.
type nameSchema struct {
	ThreadName string `json:"thread_name"`
}

// NameThread produces a short thread title in the user's language via a
// separate model at a higher temperature than the synthesizer's, per §4.4.
// A failure here falls back to a generic title rather than blocking thread
// creation — naming is cosmetic, not load-bearing.
func NameThread(ctx context.Context, client llm.Client, namingPromptTemplate, userPrompt string) string {
	var out nameSchema
	_, err := client.Chat(ctx, llm.Request{
		SystemPrompt: namingPromptTemplate,
		UserPrompt:   userPrompt,
		SchemaName:   "thread_name",
		Schema:       llm.GenerateSchema[nameSchema](),
		Temperature:  llm.Temp(namingTemperature),
		MaxTokens:    128,
	}, &out)
	if err != nil {
		slog.WarnContext(ctx, "thread naming call failed, using fallback title", "error", err)
		return "Travel Plan"
	}
	if out.ThreadName == "" {
		return "Travel Plan"
	}
	return out.ThreadName
}
