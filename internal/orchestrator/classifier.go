package orchestrator

import (
	"context"
	"log/slog"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/model"
)

// getLanguageArgs is the forced tool-call argument shape for language
// triage.
type getLanguageArgs struct {
	Language string `json:"language" jsonschema:"enum=English,enum=Chinese,enum=Japanese,enum=Other"`
}

// ClassifyLanguage issues a single tool_choice=required call restricted to
// one tool, get_language. A provider failure is non-fatal and falls back to
// English, per §4.2 and the classifier-timeout boundary behavior in §8.
func ClassifyLanguage(ctx context.Context, client llm.AgentClient, triagePrompt, userPrompt string) model.Language {
	resp, err := client.ChatWithTools(ctx, llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "system", Content: triagePrompt},
			{Role: "user", Content: userPrompt},
		},
		Tools: []llm.Tool{
			{
				Name:        "get_language",
				Description: "Report the detected language of the user's request.",
				Parameters:  llm.GenerateSchemaFrom(getLanguageArgs{}),
				Strict:      true,
			},
		},
		ToolChoice: "required",
	})
	if err != nil {
		slog.WarnContext(ctx, "language classifier failed, falling back to English", "error", err)
		return model.LanguageEnglish
	}

	if len(resp.ToolCalls) == 0 {
		slog.WarnContext(ctx, "language classifier returned no tool call, falling back to English")
		return model.LanguageEnglish
	}

	args, err := llm.ParseToolArguments[getLanguageArgs](resp.ToolCalls[0].Arguments)
	if err != nil {
		slog.WarnContext(ctx, "language classifier tool arguments undecodable, falling back to English", "error", err)
		return model.LanguageEnglish
	}

	switch model.Language(args.Language) {
	case model.LanguageChinese:
		return model.LanguageChinese
	case model.LanguageJapanese:
		return model.LanguageJapanese
	case model.LanguageOther:
		return model.LanguageOther
	default:
		return model.LanguageEnglish
	}
}
