// Package llm provides provider-agnostic chat clients used by the
// orchestration engine: a tool-calling AgentClient for fan-out and the
// Transport tool-call loop, and a structured-output Client for the planner,
// classifier, and synthesizer.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

var nameInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Config holds LLM client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// UseResponsesAPI routes the call through the provider's "responses" API
	// with a fixed high reasoning effort, used for O3/O3Pro-class providers.
	UseResponsesAPI bool

	// PinnedAggregatorProvider, when non-empty, is sent as the aggregator
	// gateway's provider.order with allow_fallbacks=false (DeepSeek routing).
	PinnedAggregatorProvider string
}

// AgentClient supports tool-calling conversations for agent loops.
type AgentClient interface {
	ChatWithTools(ctx context.Context, req AgentRequest) (*AgentResponse, error)
	Model() string
}

// AgentRequest contains the messages and tools for an agent turn.
type AgentRequest struct {
	Messages    []Message
	Tools       []Tool
	ToolChoice  string // "", "auto", or "required"
	MaxTokens   int
	Temperature *float64
	TopP        *float64
}

// Message represents a conversation message.
type Message struct {
	Role       string // "system", "user", "assistant", "tool"
	Name       string // Optional: participant name for multi-user conversations (user messages only)
	Content    string // Text content
	ToolCalls  []ToolCall
	ToolCallID string
}

// Tool defines a function the LLM can call.
type Tool struct {
	Name        string
	Description string
	Parameters  any // JSON Schema for parameters
	Strict      bool
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// AgentResponse contains the LLM's response.
type AgentResponse struct {
	Content          string
	ToolCalls        []ToolCall
	FinishReason     string // "stop", "tool_calls", "length"
	PromptTokens     int
	CompletionTokens int
}

type agentClient struct {
	openai openai.Client
	model  string
	cfg    Config
}

// NewAgentClient creates an AgentClient for tool-calling conversations over
// any OpenAI-compatible endpoint (direct OpenAI, or an aggregator/vendor
// reached through Config.BaseURL).
func NewAgentClient(cfg Config) (AgentClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	return &agentClient{
		openai: openai.NewClient(opts...),
		model:  model,
		cfg:    cfg,
	}, nil
}

func (c *agentClient) ChatWithTools(ctx context.Context, req AgentRequest) (*AgentResponse, error) {
	if c.cfg.UseResponsesAPI {
		return c.chatWithToolsResponses(ctx, req)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	messages := convertMessages(req.Messages)
	tools := convertTools(req.Tools)

	params := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}

	if len(tools) > 0 {
		params.Tools = tools
	}
	if req.ToolChoice == "required" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("required"),
		}
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	applyAggregatorPin(&params, c.cfg.PinnedAggregatorProvider)

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat with tools: %w", err)
	}

	slog.DebugContext(ctx, "agent chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	result := &AgentResponse{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}

	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result, nil
}

// chatWithToolsResponses routes the call through the Responses API with a
// fixed high reasoning effort, used for O3/O3Pro-class providers per the
// fan-out tuning table.
func (c *agentClient) chatWithToolsResponses(ctx context.Context, req AgentRequest) (*AgentResponse, error) {
	var systemPrompt, userPrompt string
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			systemPrompt = m.Content
		case "user":
			userPrompt = m.Content
		}
	}

	params := responses.ResponseNewParams{
		Model:        shared.ResponsesModel(c.model),
		Instructions: openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(userPrompt),
		},
		Reasoning: shared.ReasoningParam{
			Effort: shared.ReasoningEffortHigh,
		},
	}

	start := time.Now()
	resp, err := c.openai.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses chat: %w", err)
	}

	slog.DebugContext(ctx, "agent responses chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds())

	return &AgentResponse{
		Content:      resp.OutputText(),
		FinishReason: "stop",
	}, nil
}

func (c *agentClient) Model() string {
	return c.model
}

// applyAggregatorPin pins DeepSeekV3/R1 requests routed through an
// aggregator gateway (e.g. OpenRouter) to the DeepSeek upstream and
// disables fallback to other upstreams, per the fan-out tuning table.
func applyAggregatorPin(params *openai.ChatCompletionNewParams, provider string) {
	if provider == "" {
		return
	}
	params.SetExtraFields(map[string]any{
		"provider": map[string]any{
			"order":           []string{provider},
			"allow_fallbacks": false,
		},
	})
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))

	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			result = append(result, openai.SystemMessage(msg.Content))

		case "user":
			if msg.Name != "" {
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfUser: &openai.ChatCompletionUserMessageParam{
						Name: openai.String(msg.Name),
						Content: openai.ChatCompletionUserMessageParamContentUnion{
							OfString: openai.String(msg.Content),
						},
					},
				})
			} else {
				result = append(result, openai.UserMessage(msg.Content))
			}

		case "assistant":
			if len(msg.ToolCalls) > 0 {
				toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
						ID:   tc.ID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					}
				}
				result = append(result, openai.ChatCompletionMessageParamUnion{
					OfAssistant: &openai.ChatCompletionAssistantMessageParam{
						Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(msg.Content)},
						ToolCalls: toolCalls,
					},
				})
			} else {
				result = append(result, openai.AssistantMessage(msg.Content))
			}

		case "tool":
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}

	return result
}

func convertTools(tools []Tool) []openai.ChatCompletionToolParam {
	result := make([]openai.ChatCompletionToolParam, len(tools))

	for i, t := range tools {
		var params shared.FunctionParameters
		if t.Parameters != nil {
			data, _ := json.Marshal(t.Parameters)
			_ = json.Unmarshal(data, &params)
		}

		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
				Strict:      openai.Bool(t.Strict),
			},
		}
	}

	return result
}

// ParseToolArguments unmarshals tool arguments into the target struct.
func ParseToolArguments[T any](arguments string) (T, error) {
	var result T
	if err := json.Unmarshal([]byte(arguments), &result); err != nil {
		return result, fmt.Errorf("parse tool arguments: %w", err)
	}
	return result, nil
}

// GenerateSchemaFrom generates a JSON schema from an instance value.
func GenerateSchemaFrom(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}

// SanitizeName converts a username to a valid OpenAI name parameter.
func SanitizeName(username string) string {
	sanitized := nameInvalidChars.ReplaceAllString(username, "_")
	if len(sanitized) > 64 {
		sanitized = sanitized[:64]
	}
	return sanitized
}
