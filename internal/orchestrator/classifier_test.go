package orchestrator

import (
	"context"
	"errors"
	"testing"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/model"
)

type mockAgentClient struct {
	resp *llm.AgentResponse
	err  error
}

func (m *mockAgentClient) ChatWithTools(_ context.Context, _ llm.AgentRequest) (*llm.AgentResponse, error) {
	return m.resp, m.err
}

func (m *mockAgentClient) Model() string { return "mock-model" }

func TestClassifyLanguageHappyPath(t *testing.T) {
	tests := []struct {
		name string
		lang string
		want model.Language
	}{
		{name: "chinese", lang: "Chinese", want: model.LanguageChinese},
		{name: "japanese", lang: "Japanese", want: model.LanguageJapanese},
		{name: "other", lang: "Other", want: model.LanguageOther},
		{name: "english", lang: "English", want: model.LanguageEnglish},
		{name: "unrecognized value falls back to English", lang: "Klingon", want: model.LanguageEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAgentClient{
				resp: &llm.AgentResponse{
					ToolCalls: []llm.ToolCall{
						{Name: "get_language", Arguments: `{"language":"` + tt.lang + `"}`},
					},
				},
			}

			got := ClassifyLanguage(t.Context(), client, "triage", "plan a trip to Kyoto")
			if got != tt.want {
				t.Errorf("ClassifyLanguage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyLanguageFallsBackOnProviderError(t *testing.T) {
	client := &mockAgentClient{err: errors.New("provider unavailable")}

	if got := ClassifyLanguage(t.Context(), client, "triage", "plan a trip"); got != model.LanguageEnglish {
		t.Errorf("ClassifyLanguage() = %v, want English fallback", got)
	}
}

func TestClassifyLanguageFallsBackOnNoToolCall(t *testing.T) {
	client := &mockAgentClient{resp: &llm.AgentResponse{Content: "no tool call here"}}

	if got := ClassifyLanguage(t.Context(), client, "triage", "plan a trip"); got != model.LanguageEnglish {
		t.Errorf("ClassifyLanguage() = %v, want English fallback", got)
	}
}

func TestClassifyLanguageFallsBackOnUndecodableArguments(t *testing.T) {
	client := &mockAgentClient{
		resp: &llm.AgentResponse{
			ToolCalls: []llm.ToolCall{{Name: "get_language", Arguments: "not json"}},
		},
	}

	if got := ClassifyLanguage(t.Context(), client, "triage", "plan a trip"); got != model.LanguageEnglish {
		t.Errorf("ClassifyLanguage() = %v, want English fallback", got)
	}
}
