package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/maps"
	"travelagency.app/bot/internal/model"
)

const (
	providerCallTimeout = 600 * time.Second
	failPrefix          = "Fail"
	// providerRetryCount is how many extra attempts a single provider call
	// gets once llm.IsRetryable classifies its error as transient (rate
	// limit, 5xx, or a bare network error) before it's counted as failed.
	providerRetryCount = 1
)

// providerTuning holds the per-provider sampling parameters §4.6 Phase C
// names explicitly; everything not listed falls back to the "others" row.
type providerTuning struct {
	temperature float64
	topP        float64
}

func tuningFor(id model.ProviderId) providerTuning {
	switch id {
	case model.ProviderKimi, model.ProviderKimiK2:
		return providerTuning{temperature: 0.3, topP: 1.0}
	case model.ProviderDeepSeekV3:
		return providerTuning{temperature: 1.8, topP: 0.98}
	default:
		return providerTuning{temperature: 1.0, topP: 1.0}
	}
}

// fanOutResult is one provider's dump plus whether it survived filtering.
type fanOutResult struct {
	dump    model.GenerationDump
	survive bool
	content string
}

// fanOut dispatches the subtask prompt to every enabled provider
// concurrently, each under its own per-call timeout, and returns every dump
// (for persistence) plus the pretty-printed JSON array of surviving
// (non-"Fail"-prefixed) contents.
func fanOut(ctx context.Context, gw *llm.Gateway, systemPrompt, userPrompt string) ([]model.GenerationDump, string, error) {
	ids := make([]model.ProviderId, 0, len(gw.Clients))
	for id := range gw.Clients {
		ids = append(ids, id)
	}

	results := make([]fanOutResult, len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))

	for i, id := range ids {
		go func(i int, id model.ProviderId) {
			defer wg.Done()
			results[i] = callProvider(ctx, gw.Clients[id], id, systemPrompt, userPrompt)
		}(i, id)
	}
	wg.Wait()

	dumps := make([]model.GenerationDump, 0, len(results))
	survivors := make([]string, 0, len(results))
	for _, r := range results {
		dumps = append(dumps, r.dump)
		if r.survive {
			survivors = append(survivors, r.content)
		}
	}

	pretty, err := prettyJSON(survivors)
	if err != nil {
		return dumps, "", fmt.Errorf("pretty-printing fan-out survivors: %w", err)
	}
	return dumps, pretty, nil
}

func callProvider(ctx context.Context, client llm.AgentClient, id model.ProviderId, systemPrompt, userPrompt string) fanOutResult {
	callCtx, cancel := context.WithTimeout(ctx, providerCallTimeout)
	defer cancel()

	tuning := tuningFor(id)
	req := llm.AgentRequest{
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: &tuning.temperature,
		TopP:        &tuning.topP,
	}

	var resp *llm.AgentResponse
	var err error
	for attempt := 0; attempt <= providerRetryCount; attempt++ {
		resp, err = client.ChatWithTools(callCtx, req)
		if err == nil || !llm.IsRetryable(callCtx, err) {
			break
		}
		slog.WarnContext(ctx, "retrying fan-out provider call", "provider", id, "attempt", attempt+1, "error", err)
	}
	if err != nil {
		content := fmt.Sprintf("%s: provider %s: %v", failPrefix, id, err)
		slog.WarnContext(ctx, "fan-out provider call failed", "provider", id, "error", err)
		return fanOutResult{dump: model.GenerationDump{Model: string(id), Content: content}}
	}

	return fanOutResult{
		dump:    model.GenerationDump{Model: string(id), Content: resp.Content},
		survive: true,
		content: resp.Content,
	}
}

// transitArgs is the decoded tool-call argument shape for get_transit_time.
type transitArgs struct {
	Routes []model.Route `json:"routes"`
}

// ExecuteResult is the outcome of one subtask's full lifecycle, returned to
// the scheduler for Context-map insertion and dump accumulation.
type ExecuteResult struct {
	Context *model.Context
	Dumps   []model.GenerationDump
}

// Execute runs one subtask end to end: dependency wait, context
// substitution, fan-out, agent consolidation, and — for Transport — the
// bounded tool-call loop. It never returns an error; failures collapse into
// a nil Context per §7 ("subtask has no context; other subtasks proceed").
func Execute(ctx context.Context, gw *llm.Gateway, mapsClient *maps.Client, exec model.Executor, contexts *contextMap, done <-chan struct{}, onState func(string)) ExecuteResult {
	onState(fmt.Sprintf("Executing %s with %s Agent…", exec.TaskID, exec.Agent))

	// Phase A: dependency wait.
	ready, ok := contexts.WaitFor(exec.Dependencies, done)
	if !ok {
		slog.WarnContext(ctx, "subtask cancelled while waiting on dependencies", "task_id", exec.TaskID)
		return ExecuteResult{}
	}

	// Phase B: context substitution.
	contextJSON := ""
	if len(ready) > 0 {
		depContent := make(map[string]string, len(ready))
		for id, c := range ready {
			depContent[id] = c.Content
		}
		pretty, err := prettyJSON(depContent)
		if err != nil {
			slog.ErrorContext(ctx, "failed to render dependency context", "task_id", exec.TaskID, "error", err)
			return ExecuteResult{}
		}
		contextJSON = pretty
	}

	userWithContext := substitute(exec.UserPrompt, map[string]string{
		"INSTRUCTION": exec.Instruction,
		"CONTEXT":     contextJSON,
	})

	// Phase C: fan-out, with $AGENT substituted empty.
	fanOutPrompt := substitute(userWithContext, map[string]string{"AGENT": ""})
	dumps, survivorsJSON, err := fanOut(ctx, gw, exec.SystemPrompt, fanOutPrompt)
	if err != nil {
		slog.ErrorContext(ctx, "fan-out failed", "task_id", exec.TaskID, "error", err)
		return ExecuteResult{Dumps: dumps}
	}

	// Phase D: agent consolidation.
	agentTransport := ""
	if exec.Agent == model.AgentTransport {
		agentTransport = substitute(exec.TransportPrompt, map[string]string{
			"RETRY_COUNT":            fmt.Sprintf("%d", maxToolRetryCountFromContext(ctx)),
			"MAXIMUM_RETRY_REACHED": "",
		})
	}
	agentPrompt := substitute(exec.AgentPrompt, map[string]string{
		"RESULTS":          survivorsJSON,
		"AGENT_TRANSPORT": agentTransport,
	})
	finalUserPrompt := substitute(userWithContext, map[string]string{"AGENT": agentPrompt})

	messages := []llm.Message{
		{Role: "system", Content: exec.SystemPrompt},
		{Role: "user", Content: finalUserPrompt},
	}

	var tools []llm.Tool
	toolChoice := ""
	if exec.Agent == model.AgentTransport && exec.GetTransitTimeTool {
		tools = []llm.Tool{transitTimeTool()}
		toolChoice = "required"
	}

	resp, err := gw.Synthesis.ChatWithTools(ctx, llm.AgentRequest{
		Messages:    messages,
		Tools:       tools,
		ToolChoice:  toolChoice,
		Temperature: llm.Temp(0.5),
	})
	if err != nil {
		slog.WarnContext(ctx, "agent synthesis call failed, subtask has no context", "task_id", exec.TaskID, "error", err)
		return ExecuteResult{Dumps: dumps}
	}
	dumps = append(dumps, model.GenerationDump{Model: gw.Synthesis.Model(), Content: resp.Content})

	// Phase E: Transport tool-call loop.
	if exec.Agent == model.AgentTransport && resp.FinishReason == "tool_calls" && len(resp.ToolCalls) > 0 {
		content, toolDumps := runTransportToolLoop(ctx, gw, mapsClient, exec, userWithContext, survivorsJSON, resp)
		dumps = append(dumps, toolDumps...)
		if content == "" {
			return ExecuteResult{Dumps: dumps}
		}
		result := model.Context{TaskID: exec.TaskID, Agent: exec.Agent, Content: content}
		contexts.Insert(result)
		onState(fmt.Sprintf("✅ %s completed.", exec.TaskID))
		return ExecuteResult{Context: &result, Dumps: dumps}
	}

	if resp.Content == "" {
		return ExecuteResult{Dumps: dumps}
	}

	result := model.Context{TaskID: exec.TaskID, Agent: exec.Agent, Content: resp.Content}
	contexts.Insert(result)
	onState(fmt.Sprintf("✅ %s completed.", exec.TaskID))
	return ExecuteResult{Context: &result, Dumps: dumps}
}

func transitTimeTool() llm.Tool {
	return llm.Tool{
		Name:        "get_transit_time",
		Description: "Resolve travel durations between a set of routes by geocoding and directions lookup.",
		Parameters:  llm.GenerateSchemaFrom(transitArgs{}),
		Strict:      true,
	}
}

// maxToolRetryCountKey threads MAX_TOOL_RETRY_COUNT through context so the
// executor doesn't need a config dependency purely for this one constant.
type maxToolRetryCountKeyType struct{}

var maxToolRetryCountKey = maxToolRetryCountKeyType{}

func WithMaxToolRetryCount(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, maxToolRetryCountKey, n)
}

func maxToolRetryCountFromContext(ctx context.Context) int {
	if n, ok := ctx.Value(maxToolRetryCountKey).(int); ok {
		return n
	}
	return 3
}

// runTransportToolLoop executes the bounded (assistant → tool → assistant)
// retry described in §4.6 Phase E. Each iteration rebuilds a fresh one-shot
// [system, user, assistant, tool] message set from userWithContext and the
// prior response rather than growing a single running history — the user
// message is rebuilt with that iteration's $RETRY_COUNT/
// $MAXIMUM_RETRY_REACHED substitution, exactly as the source's
// build_one_shot_messages + single assistant/tool push does. It returns the
// final Transport context content (empty if the loop exhausts its budget
// still requesting tools) plus every intermediate GenerationDump produced
// along the way.
func runTransportToolLoop(ctx context.Context, gw *llm.Gateway, mapsClient *maps.Client, exec model.Executor, userWithContext, survivorsJSON string, firstResp *llm.AgentResponse) (string, []model.GenerationDump) {
	maxRetry := maxToolRetryCountFromContext(ctx)
	var dumps []model.GenerationDump

	resp := firstResp
	for n := 0; n < maxRetry; n++ {
		toolCall := resp.ToolCalls[0]
		result := executeTransitTool(ctx, mapsClient, toolCall.Arguments)

		agentTransport := substitute(exec.TransportPrompt, map[string]string{
			"RETRY_COUNT":           fmt.Sprintf("%d", n),
			"MAXIMUM_RETRY_REACHED": maximumRetryReached(exec, n, maxRetry),
		})
		agentPrompt := substitute(exec.AgentPrompt, map[string]string{
			"RESULTS":         survivorsJSON,
			"AGENT_TRANSPORT": agentTransport,
		})
		retryUserPrompt := substitute(userWithContext, map[string]string{"AGENT": agentPrompt})

		messages := []llm.Message{
			{Role: "system", Content: exec.SystemPrompt},
			{Role: "user", Content: retryUserPrompt},
			{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls},
			{Role: "tool", Content: result, ToolCallID: toolCall.ID},
		}

		var next *llm.AgentResponse
		var err error
		for attempt := 0; attempt <= providerRetryCount; attempt++ {
			next, err = gw.Synthesis.ChatWithTools(ctx, llm.AgentRequest{
				Messages:    messages,
				Tools:       []llm.Tool{transitTimeTool()},
				ToolChoice:  "required",
				Temperature: llm.Temp(0.5),
			})
			if err == nil || !llm.IsRetryable(ctx, err) {
				break
			}
			slog.WarnContext(ctx, "retrying transport tool-loop call", "task_id", exec.TaskID, "iteration", n, "attempt", attempt+1, "error", err)
		}
		if err != nil {
			slog.WarnContext(ctx, "transport tool-loop call failed", "task_id", exec.TaskID, "iteration", n, "error", err)
			return "", dumps
		}
		dumps = append(dumps, model.GenerationDump{Model: gw.Synthesis.Model(), Content: next.Content})

		if next.FinishReason != "tool_calls" || len(next.ToolCalls) == 0 {
			return next.Content, dumps
		}

		resp = next
	}

	return "", dumps
}

func maximumRetryReached(exec model.Executor, n, maxRetry int) string {
	if n+1 == maxRetry {
		return exec.TransportMaxRetryPrompt
	}
	return ""
}

// executeTransitTool decodes the tool_call arguments as a TransferPlan,
// geocodes every place, resolves durations for the primary and alternative
// mode at 12:00 today, and returns the pretty-printed RouteWithDuration
// array the provider expects back. Undecodable arguments yield an empty
// array; a geocode or directions failure is recorded per route ("No result"
// / "None") rather than aborting the whole call, per §4.6's "count the
// iteration and continue" policy.
func executeTransitTool(ctx context.Context, mapsClient *maps.Client, arguments string) string {
	args, err := llm.ParseToolArguments[transitArgs](arguments)
	if err != nil {
		slog.WarnContext(ctx, "transit tool arguments undecodable", "error", err)
		return "[]"
	}

	now := time.Now()
	departAt := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, now.Location())

	results := make([]model.RouteWithDuration, 0, len(args.Routes))
	for _, route := range args.Routes {
		duration, ok := resolveDirection(ctx, mapsClient, route.From, route.To, route.By, departAt)
		if !ok {
			duration = "No result"
		}
		alternative := alternateMode(route.By)
		altDuration, ok := resolveDirection(ctx, mapsClient, route.From, route.To, alternative, departAt)
		if !ok {
			altDuration = "None"
		}

		results = append(results, model.RouteWithDuration{
			From:        route.From,
			To:          route.To,
			By:          route.By,
			Duration:    duration,
			Alternative: altDuration,
		})
	}

	pretty, err := prettyJSON(results)
	if err != nil {
		return "[]"
	}
	return pretty
}

func alternateMode(mode model.TransitMode) model.TransitMode {
	if mode == model.ModeDriveOrTaxi {
		return model.ModePublicTransport
	}
	return model.ModeDriveOrTaxi
}

// resolveDirection geocodes both endpoints then requests directions for the
// given mode, reporting ok=false on any failure so the caller can substitute
// the slot-appropriate sentinel ("No result" for the primary mode, "None"
// for the alternative, per §4.6 Phase E step 3).
func resolveDirection(ctx context.Context, mapsClient *maps.Client, from, to string, mode model.TransitMode, departAt time.Time) (string, bool) {
	if _, err := mapsClient.Geocode(ctx, from); err != nil {
		return "", false
	}
	if _, err := mapsClient.Geocode(ctx, to); err != nil {
		return "", false
	}

	duration, err := mapsClient.Directions(ctx, from, to, mode, &departAt)
	if err != nil {
		return "", false
	}
	return duration, true
}
