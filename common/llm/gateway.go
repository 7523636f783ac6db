package llm

import (
	"fmt"
	"log/slog"

	"travelagency.app/bot/internal/model"
)

// Gateway is the uniform façade over the heterogeneous set of LLM providers
// fanned out to during subtask execution, keyed by ProviderId. Providers
// without a configured API key are simply absent from Clients, so fan-out
// dispatches only to what's actually enabled.
type Gateway struct {
	Clients map[model.ProviderId]AgentClient

	// Synthesis is the single designated Anthropic-class agent used for
	// per-subtask agent consolidation (Phase D) and the Transport tool loop.
	Synthesis AgentClient

	// Planning is the strong reasoning provider used by the Planner and
	// Synthesizer for structured JSON-schema output.
	Planning Client

	// Naming is a separate, higher-temperature model used for thread naming.
	Naming Client
}

// ProviderKeys carries the environment-sourced API keys the Gateway wires
// providers from. Empty values are skipped rather than treated as errors,
// so a deployment can run with a subset of providers enabled.
type ProviderKeys struct {
	OpenAI     string
	Anthropic  string
	DeepSeek   string
	Moonshot   string
	Zhipu      string
	VolcEngine string
	StepFun    string
	OpenRouter string
}

const (
	deepSeekBaseURL   = "https://api.deepseek.com/v1"
	moonshotBaseURL   = "https://api.moonshot.cn/v1"
	zhipuBaseURL      = "https://open.bigmodel.cn/api/paas/v4"
	volcEngineBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	stepFunBaseURL    = "https://api.stepfun.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// NewGateway constructs one AgentClient per ProviderId with a configured key,
// plus the fixed Anthropic synthesis client and the structured-output
// planning/naming clients.
func NewGateway(keys ProviderKeys) (*Gateway, error) {
	gw := &Gateway{Clients: make(map[model.ProviderId]AgentClient)}

	type spec struct {
		id      model.ProviderId
		key     string
		baseURL string
		model   string
		pin     string
		resp    bool
	}

	specs := []spec{
		{id: model.ProviderGPT4O, key: keys.OpenAI, model: "gpt-4o"},
		{id: model.ProviderGPT4OMini, key: keys.OpenAI, model: "gpt-4o-mini"},
		{id: model.ProviderO3, key: keys.OpenAI, model: "o3", resp: true},
		{id: model.ProviderO3Pro, key: keys.OpenAI, model: "o3-pro", resp: true},
		{id: model.ProviderO3Mini, key: keys.OpenAI, model: "o3-mini", resp: true},
		{id: model.ProviderO1, key: keys.OpenAI, model: "o1", resp: true},
		{id: model.ProviderO1Mini, key: keys.OpenAI, model: "o1-mini", resp: true},
		{id: model.ProviderDeepSeekV3, key: keys.OpenRouter, baseURL: openRouterBaseURL, model: "deepseek/deepseek-chat", pin: "DeepSeek"},
		{id: model.ProviderDeepSeekR1, key: keys.OpenRouter, baseURL: openRouterBaseURL, model: "deepseek/deepseek-r1", pin: "DeepSeek"},
		{id: model.ProviderKimi, key: keys.Moonshot, baseURL: moonshotBaseURL, model: "moonshot-v1-8k"},
		{id: model.ProviderKimiK2, key: keys.Moonshot, baseURL: moonshotBaseURL, model: "kimi-k2-0711-preview"},
		{id: model.ProviderGLM4, key: keys.Zhipu, baseURL: zhipuBaseURL, model: "glm-4"},
		{id: model.ProviderGLM4Air, key: keys.Zhipu, baseURL: zhipuBaseURL, model: "glm-4-air"},
		{id: model.ProviderDoubao, key: keys.VolcEngine, baseURL: volcEngineBaseURL, model: "doubao-pro-32k"},
		{id: model.ProviderDoubaoSeed, key: keys.VolcEngine, baseURL: volcEngineBaseURL, model: "doubao-seed-1-6"},
		{id: model.ProviderStepFun2, key: keys.StepFun, baseURL: stepFunBaseURL, model: "step-2"},
	}

	for _, s := range specs {
		if s.key == "" {
			slog.Debug("provider skipped: no api key configured", "provider", s.id)
			continue
		}
		client, err := NewAgentClient(Config{
			APIKey:                   s.key,
			BaseURL:                  s.baseURL,
			Model:                    s.model,
			UseResponsesAPI:          s.resp,
			PinnedAggregatorProvider: s.pin,
		})
		if err != nil {
			return nil, fmt.Errorf("constructing client for provider %s: %w", s.id, err)
		}
		gw.Clients[s.id] = client
	}

	// Claude-class providers fan out through the Anthropic SDK directly
	// rather than NewAgentClient's OpenAI-shaped Config, so they're built
	// separately instead of living in the specs table above.
	anthropicSpecs := []struct {
		id    model.ProviderId
		model string
	}{
		{id: model.ProviderClaude37Sonnet, model: "claude-3-7-sonnet-20250219"},
		{id: model.ProviderClaude3Opus, model: "claude-3-opus-20240229"},
		{id: model.ProviderClaude35Haiku, model: "claude-3-5-haiku-20241022"},
	}
	for _, s := range anthropicSpecs {
		if keys.Anthropic == "" {
			slog.Debug("provider skipped: no api key configured", "provider", s.id)
			continue
		}
		client, err := NewAnthropicClient(Config{APIKey: keys.Anthropic, Model: s.model})
		if err != nil {
			return nil, fmt.Errorf("constructing client for provider %s: %w", s.id, err)
		}
		gw.Clients[s.id] = client
	}

	if keys.Anthropic != "" {
		synth, err := NewAnthropicClient(Config{APIKey: keys.Anthropic, Model: "claude-sonnet-4-5-20250514"})
		if err != nil {
			return nil, fmt.Errorf("constructing anthropic synthesis client: %w", err)
		}
		gw.Synthesis = synth
	}

	if keys.OpenAI != "" {
		planning, err := New(Config{APIKey: keys.OpenAI, Model: "o3"})
		if err != nil {
			return nil, fmt.Errorf("constructing planning client: %w", err)
		}
		gw.Planning = planning

		naming, err := New(Config{APIKey: keys.OpenAI, Model: "gpt-4o-mini"})
		if err != nil {
			return nil, fmt.Errorf("constructing naming client: %w", err)
		}
		gw.Naming = naming
	}

	slog.Info("provider gateway constructed", "enabled_providers", len(gw.Clients))
	return gw, nil
}
