// Package model holds the data types shared across the orchestration engine:
// plans, tasks, providers, and the records persisted during a run.
package model

import "time"

// Language is the detected natural language of the user's request.
type Language string

const (
	LanguageEnglish  Language = "English"
	LanguageChinese  Language = "Chinese"
	LanguageJapanese Language = "Japanese"
	LanguageOther    Language = "Other"
)

// Agent identifies which per-subtask synthesis persona and prompt pack a task uses.
type Agent string

const (
	AgentFood      Agent = "Food"
	AgentTransport Agent = "Transport"
	AgentHistory   Agent = "History"
	AgentModern    Agent = "Modern"
	AgentNature    Agent = "Nature"
)

func (a Agent) Valid() bool {
	switch a {
	case AgentFood, AgentTransport, AgentHistory, AgentModern, AgentNature:
		return true
	}
	return false
}

// ProviderId identifies a specific LLM backend endpoint fanned out to during
// subtask execution. The full set mirrors the original implementation's
// model-name map; only providers with a configured API key are dispatched to.
type ProviderId string

const (
	ProviderGPT4O          ProviderId = "gpt-4o"
	ProviderGPT4OMini      ProviderId = "gpt-4o-mini"
	ProviderO3             ProviderId = "o3"
	ProviderO3Pro          ProviderId = "o3-pro"
	ProviderO3Mini         ProviderId = "o3-mini"
	ProviderO1             ProviderId = "o1"
	ProviderO1Mini         ProviderId = "o1-mini"
	ProviderClaude37Sonnet ProviderId = "claude-3-7-sonnet"
	ProviderClaude3Opus    ProviderId = "claude-3-opus"
	ProviderClaude35Haiku  ProviderId = "claude-3-5-haiku"
	ProviderDeepSeekV3     ProviderId = "deepseek-v3"
	ProviderDeepSeekR1     ProviderId = "deepseek-r1"
	ProviderKimi           ProviderId = "kimi"
	ProviderKimiK2         ProviderId = "kimi-k2"
	ProviderGLM4           ProviderId = "glm-4"
	ProviderGLM4Air        ProviderId = "glm-4-air"
	ProviderDoubao         ProviderId = "doubao"
	ProviderDoubaoSeed     ProviderId = "doubao-seed"
	ProviderStepFun2       ProviderId = "stepfun-2"
)

// Task is one node of the plan's dependency graph.
type Task struct {
	TaskID       string   `json:"task_id"`
	Agent        Agent    `json:"agent"`
	Instruction  string   `json:"instruction"`
	Dependencies []string `json:"dependencies"`
}

// OrchestrationPlan is the Planner's validated output: a dependency graph of
// tasks plus the greeting and synthesis strategy that frame the run.
type OrchestrationPlan struct {
	GreetingMessage string `json:"greeting_message"`
	Analysis        string `json:"analysis"`
	SynthesisPlan   string `json:"synthesis_plan"`
	Tasks           []Task `json:"tasks"`
}

// Context is the successful output of one completed subtask, shared with its
// dependents via the scheduler's concurrent map.
type Context struct {
	TaskID  string
	Agent   Agent
	Content string
}

// Executor holds everything one worker needs to run a single task: resolved
// prompts, the agent tag, and (for Transport) the tool definition.
type Executor struct {
	TaskID                  string
	SystemPrompt            string
	UserPrompt              string
	Instruction             string
	Agent                   Agent
	AgentPrompt             string
	Dependencies            []string
	TransportPrompt         string
	TransportMaxRetryPrompt string
	GetTransitTimeTool      bool
}

// GenerationDump is one raw provider response recorded into the plan trace.
type GenerationDump struct {
	Model         string `json:"model"`
	Content       string `json:"content"`
	IsFinalResult bool   `json:"is_final_result"`
}

// Message is one entry of PlanRecord's chronological chat trace.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PlanRecord is the persisted trace of one plan's full conversation and raw
// provider outputs. It is inserted once the plan's thread exists and then
// grown by appends as each phase produces output; it is not held back until
// the run succeeds, so a run that fails later leaves a partial record.
type PlanRecord struct {
	ID        string           `bson:"_id" json:"id"`
	Language  Language         `bson:"language" json:"language"`
	Messages  []Message        `bson:"messages" json:"messages"`
	Dumps     []GenerationDump `bson:"dumps" json:"dumps"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}

// PlanMapping ties a persisted plan to the chat thread it was delivered in.
type PlanMapping struct {
	PlanID            string `bson:"_id" json:"plan_id"`
	ThreadID          string `bson:"thread_id" json:"thread_id"`
	ChannelID         string `bson:"channel_id" json:"channel_id"`
	OriginalMessageID string `bson:"original_message_id" json:"original_message_id"`
}

// TransitMode is a mode of travel the Transport agent can request durations for.
type TransitMode string

const (
	ModeDriveOrTaxi     TransitMode = "drive_or_taxi"
	ModePublicTransport TransitMode = "public_transport"
)

// Route is one leg of a transfer plan requested by the Transport agent's tool call.
type Route struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	By   TransitMode `json:"by"`
}

// TransferPlan is the decoded argument set of a get_transit_time tool call.
type TransferPlan struct {
	Routes []Route `json:"routes"`
}

// RouteWithDuration is one leg's resolved result: duration by the requested
// mode plus the always-present alternative mode, for comparison.
type RouteWithDuration struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	By          TransitMode `json:"by"`
	Duration    string      `json:"duration"`
	Alternative string      `json:"alternative"`
}
