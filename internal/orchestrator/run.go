// Package orchestrator is the Orchestration Engine: the Planner, the
// language classifier, the DAG Scheduler, the Subtask Executor, and the
// Synthesizer, wired together by Run into the full plan lifecycle described
// in §5: classify → plan → greet → name → thread → persist skeleton →
// execute → synthesize → append result → deliver.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"travelagency.app/bot/common/id"
	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/config"
	"travelagency.app/bot/internal/discord"
	"travelagency.app/bot/internal/maps"
	"travelagency.app/bot/internal/model"
	"travelagency.app/bot/internal/record"
)

// Engine wires every collaborator the plan flow needs. One Engine instance
// is constructed at startup and reused across plans.
type Engine struct {
	Gateway *llm.Gateway
	Maps    *maps.Client
	Chat    *discord.Client
	Store   *record.Store
	Prompts config.PromptPack

	PlanDeadline         time.Duration
	MaxPlannerRetryCount int
	MaxToolRetryCount    int
}

// RunPlan executes one full plan lifecycle for a single user interaction.
// A failure to mint the plan id or a planner failure surfaces a diagnostic
// string in the original interaction response; later fatal steps
// (synthesis, record-store, chat-surface failures) are only logged. Every
// fatal error is returned so the caller (the consumer pool's worker loop)
// can decide whether to requeue the dispatch or send it to the DLQ, per §7.
func (e *Engine) RunPlan(ctx context.Context, interactionToken, channelID, originalMessageID, userPrompt string) error {
	ctx, cancel := context.WithTimeout(ctx, e.PlanDeadline)
	defer cancel()
	ctx = WithMaxToolRetryCount(ctx, e.MaxToolRetryCount)

	planID, err := id.NewPlanID()
	if err != nil {
		slog.ErrorContext(ctx, "failed to mint plan id", "error", err)
		e.surfaceDiagnostic(interactionToken, "Sorry, something went wrong starting your plan.")
		return fmt.Errorf("minting plan id: %w", err)
	}

	language := model.LanguageEnglish
	if e.Gateway.Synthesis != nil {
		language = ClassifyLanguage(ctx, e.Gateway.Synthesis, e.Prompts.LanguageTriagePrompt, userPrompt)
	}
	pack := e.Prompts.ForLanguage(string(language))

	plan, err := NewPlanner(e.Gateway.Planning, e.MaxPlannerRetryCount).Plan(ctx, pack.Orchestrator.Prompt, userPrompt)
	if err != nil {
		slog.ErrorContext(ctx, "planner failed", "error", err)
		e.surfaceDiagnostic(interactionToken, fmt.Sprintf("I couldn't put together a plan: %v", err))
		return fmt.Errorf("planning plan %s: %w", planID, err)
	}

	greetingMsg, err := e.Chat.EditOriginalResponse(interactionToken, plan.GreetingMessage)
	if err != nil {
		slog.ErrorContext(ctx, "failed to edit original response with greeting", "error", err)
		return fmt.Errorf("editing original response for plan %s: %w", planID, err)
	}

	threadName := NameThread(ctx, e.Gateway.Naming, pack.Naming.Prompt, userPrompt)
	thread, err := e.Chat.CreateThreadFromMessage(channelID, greetingMsg.ID, threadName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create thread", "error", err)
		return fmt.Errorf("creating thread for plan %s: %w", planID, err)
	}

	if len(plan.Tasks) == 0 {
		slog.InfoContext(ctx, "plan has zero tasks, skipping execution and synthesis", "plan_id", planID)
		return nil
	}

	// Persist the plan's skeleton (and its thread mapping) as soon as the
	// thread exists, then grow the transcript with $push-style appends as
	// each phase produces output. A crash mid-schedule still leaves a
	// durable, if partial, record instead of losing everything to a single
	// end-of-pipeline write.
	planRecord := model.PlanRecord{
		ID:       planID,
		Language: language,
		Messages: []model.Message{
			{Role: "system", Content: pack.Orchestrator.Prompt},
			{Role: "user", Content: userPrompt},
		},
		CreatedAt: time.Now(),
	}
	if err := e.Store.CreatePlan(ctx, planRecord); err != nil {
		slog.ErrorContext(ctx, "failed to persist initial plan record, plan not delivered", "plan_id", planID, "error", err)
		return fmt.Errorf("persisting initial plan record %s: %w", planID, err)
	}
	mapping := model.PlanMapping{
		PlanID:            planID,
		ThreadID:          thread.ID,
		ChannelID:         channelID,
		OriginalMessageID: originalMessageID,
	}
	if err := e.Store.SaveMapping(ctx, mapping); err != nil {
		slog.ErrorContext(ctx, "failed to persist plan mapping", "plan_id", planID, "error", err)
		return fmt.Errorf("persisting plan mapping %s: %w", planID, err)
	}
	if err := e.Store.AppendMessage(ctx, planID, model.Message{Role: "assistant", Content: plan.Analysis}); err != nil {
		slog.WarnContext(ctx, "failed to append plan analysis message", "plan_id", planID, "error", err)
	}
	planRecord.Messages = append(planRecord.Messages, model.Message{Role: "assistant", Content: plan.Analysis})

	scheduleResult, err := RunSchedule(ctx, e.Gateway, e.Maps, e.Chat, thread.ID, plan, language, pack)
	if err != nil {
		slog.ErrorContext(ctx, "scheduler failed", "plan_id", planID, "error", err)
		return fmt.Errorf("scheduling plan %s: %w", planID, err)
	}
	for _, dump := range scheduleResult.Dumps {
		if err := e.Store.AppendDump(ctx, planID, dump); err != nil {
			slog.WarnContext(ctx, "failed to append subtask generation dump", "plan_id", planID, "error", err)
		}
	}

	finalResult, err := Synthesize(ctx, e.Gateway.Planning, pack.Synthesis.Prompt, planRecord.Messages, scheduleResult.Contexts)
	if err != nil {
		slog.ErrorContext(ctx, "synthesizer failed, plan not delivered", "plan_id", planID, "error", err)
		return fmt.Errorf("synthesizing plan %s: %w", planID, err)
	}
	if err := e.Store.AppendMessage(ctx, planID, model.Message{Role: "assistant", Content: finalResult}); err != nil {
		slog.WarnContext(ctx, "failed to append final-result message", "plan_id", planID, "error", err)
	}
	if err := e.Store.AppendDump(ctx, planID, model.GenerationDump{Model: e.Gateway.Planning.Model(), Content: finalResult, IsFinalResult: true}); err != nil {
		slog.WarnContext(ctx, "failed to append final-result dump", "plan_id", planID, "error", err)
	}

	for _, chunk := range SplitFinalResult(finalResult) {
		if _, err := e.Chat.SendMessage(thread.ID, chunk); err != nil {
			slog.ErrorContext(ctx, "failed to deliver final-result chunk", "plan_id", planID, "error", err)
			return fmt.Errorf("delivering final result for plan %s: %w", planID, err)
		}
	}

	slog.InfoContext(ctx, "plan delivered", "plan_id", planID)
	return nil
}

func (e *Engine) surfaceDiagnostic(interactionToken, message string) {
	if _, err := e.Chat.EditOriginalResponse(interactionToken, message); err != nil {
		slog.Error("failed to surface diagnostic to interaction response", "error", err)
	}
}
