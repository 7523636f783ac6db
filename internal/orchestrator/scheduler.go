package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/config"
	"travelagency.app/bot/internal/discord"
	"travelagency.app/bot/internal/maps"
	"travelagency.app/bot/internal/model"
)

const launchStagger = 1 * time.Second

// ScheduleResult is everything the scheduler produced across all workers:
// the non-nil contexts (for callers that want the final per-task outputs)
// and the flattened dump list for persistence.
type ScheduleResult struct {
	Contexts []model.Context
	Dumps    []model.GenerationDump
}

// RunSchedule runs the DAG Scheduler for one plan: it posts the progress
// embed, builds one Executor per task from the language-resolved prompt
// pack, launches a worker per task with a ~1s stagger between launches, and
// collects every worker's result once all have finished.
//
// ctx carries the per-plan deadline (§5's absent global cancellation,
// added here per the redesign in §9): a worker blocked forever on a
// dangling or cyclic dependency set is released once ctx is done, rather
// than polling indefinitely.
func RunSchedule(ctx context.Context, gw *llm.Gateway, mapsClient *maps.Client, chat *discord.Client, channelID string, plan model.OrchestrationPlan, language model.Language, pack config.LanguagePromptPack) (ScheduleResult, error) {
	if len(plan.Tasks) == 0 {
		return ScheduleResult{}, nil
	}

	embed, err := postProgress(chat, channelID, plan.Analysis, len(plan.Tasks))
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("posting progress embed: %w", err)
	}

	contexts := newContextMap()
	executors := buildExecutors(plan, pack)

	type workerResult struct {
		result ExecuteResult
	}

	results := make([]workerResult, len(executors))
	var wg sync.WaitGroup
	wg.Add(len(executors))

	for i, exec := range executors {
		i, exec := i, exec
		go func() {
			defer wg.Done()
			onState := func(line string) { embed.Append(line) }
			results[i] = workerResult{result: Execute(ctx, gw, mapsClient, exec, contexts, ctx.Done(), onState)}
		}()

		if i < len(executors)-1 {
			select {
			case <-time.After(launchStagger):
			case <-ctx.Done():
			}
		}
	}

	wg.Wait()

	out := ScheduleResult{}
	for _, r := range results {
		if r.result.Context != nil {
			out.Contexts = append(out.Contexts, *r.result.Context)
		}
		out.Dumps = append(out.Dumps, r.result.Dumps...)
	}

	slog.InfoContext(ctx, "schedule completed", "task_count", len(executors), "contexts_produced", len(out.Contexts))
	return out, nil
}

// buildExecutors resolves each task's prompt pack into a concrete Executor,
// replacing the user prompt's $INSTRUCTION placeholder up front (the
// remaining $CONTEXT/$AGENT placeholders are resolved per-worker in
// Execute, since they depend on runtime state).
func buildExecutors(plan model.OrchestrationPlan, pack config.LanguagePromptPack) []model.Executor {
	executors := make([]model.Executor, 0, len(plan.Tasks))
	for _, task := range plan.Tasks {
		agentPack := pack.ForAgent(string(task.Agent))

		exec := model.Executor{
			TaskID:       task.TaskID,
			SystemPrompt: agentPack.SystemPrompt,
			UserPrompt:   agentPack.UserPrompt,
			Instruction:  task.Instruction,
			Agent:        task.Agent,
			AgentPrompt:  pack.Agent.Prompt,
			Dependencies: task.Dependencies,
		}

		if task.Agent == model.AgentTransport {
			exec.TransportPrompt = pack.TransportAgent.Prompt
			exec.TransportMaxRetryPrompt = pack.TransportAgentMaxTry.Prompt
			exec.GetTransitTimeTool = true
		}

		executors = append(executors, exec)
	}
	return executors
}
