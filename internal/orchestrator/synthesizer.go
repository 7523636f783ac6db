package orchestrator

import (
	"context"
	"fmt"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/model"
)

// synthesisSchema is the strict {final_result: string} output shape.
type synthesisSchema struct {
	FinalResult string `json:"final_result"`
}

// SynthesizerError is fatal to the plan: no final message is sent and no
// final result is appended; the record already written for the plan stays
// as it is, without a final result.
type SynthesizerError struct{ Err error }

func (e *SynthesizerError) Error() string { return fmt.Sprintf("synthesizer: %v", e.Err) }
func (e *SynthesizerError) Unwrap() error { return e.Err }

// Synthesize combines every subtask's Context into the single final-result
// string, under the language pack's synthesis prompt and a low-temperature
// strict JSON-schema call to the strong reasoning provider.
func Synthesize(ctx context.Context, client llm.Client, synthesisPromptTemplate string, messages []model.Message, contexts []model.Context) (string, error) {
	byTask := make(map[string]model.Context, len(contexts))
	for _, c := range contexts {
		byTask[c.TaskID] = c
	}

	resultsJSON, err := prettyJSON(byTask)
	if err != nil {
		return "", &SynthesizerError{Err: fmt.Errorf("rendering results map: %w", err)}
	}

	synthesisPrompt := substitute(synthesisPromptTemplate, map[string]string{"RESULTS": resultsJSON})

	systemPrompt, history := splitSystemPrompt(messages)
	userPrompt := history + "\n" + synthesisPrompt

	var out synthesisSchema
	_, err = client.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		SchemaName:   "synthesis",
		Schema:       llm.GenerateSchema[synthesisSchema](),
		Temperature:  llm.Temp(0.0),
		MaxTokens:    4096,
	}, &out)
	if err != nil {
		return "", &SynthesizerError{Err: err}
	}

	return out.FinalResult, nil
}

// splitSystemPrompt pulls the first system message out of the plan's
// message log (the orchestrator system prompt) and flattens the remainder
// into a single prompt body, since the structured-output Client issues one
// system/user pair rather than an arbitrary message list.
func splitSystemPrompt(messages []model.Message) (systemPrompt, body string) {
	for i, m := range messages {
		if m.Role == "system" {
			systemPrompt = m.Content
			rest := append(append([]model.Message{}, messages[:i]...), messages[i+1:]...)
			return systemPrompt, flatten(rest)
		}
	}
	return "", flatten(messages)
}

func flatten(messages []model.Message) string {
	out := ""
	for i, m := range messages {
		if i > 0 {
			out += "\n\n"
		}
		out += fmt.Sprintf("[%s] %s", m.Role, m.Content)
	}
	return out
}
