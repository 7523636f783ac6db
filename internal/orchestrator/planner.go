package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/model"
)

// planSchema is the strict JSON-schema shape returned by the planning call,
// decoded field-for-field into model.OrchestrationPlan.
type planSchema struct {
	GreetingMessage string `json:"greeting_message"`
	Analysis        string `json:"analysis"`
	SynthesisPlan   string `json:"synthesis_plan"`
	Tasks           []struct {
		TaskID       string   `json:"task_id"`
		Agent        string   `json:"agent"`
		Instruction  string   `json:"instruction"`
		Dependencies []string `json:"dependencies"`
	} `json:"tasks"`
}

// PlannerError is returned when the planning provider itself fails (as
// opposed to returning a structurally invalid plan, which is retried).
type PlannerError struct {
	Err error
}

func (e *PlannerError) Error() string { return fmt.Sprintf("planner: %v", e.Err) }
func (e *PlannerError) Unwrap() error { return e.Err }

// InvalidPlanError is returned once the retry budget is exhausted without
// producing a structurally valid, acyclic plan.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string { return fmt.Sprintf("invalid plan: %s", e.Reason) }

// Planner builds a validated OrchestrationPlan from a system/user prompt
// pair, retrying on a structurally invalid DAG (dangling reference or
// cycle) up to a bounded retry count — the source's unbounded retry loop
// replaced per the retry-cap redesign.
type Planner struct {
	client        llm.Client
	maxRetryCount int
}

func NewPlanner(client llm.Client, maxRetryCount int) *Planner {
	return &Planner{client: client, maxRetryCount: maxRetryCount}
}

// Plan issues the structured-output request and validates the resulting DAG,
// resampling the identical request on a dangling reference or cycle until
// either a valid plan is produced or the retry budget is exhausted.
func (p *Planner) Plan(ctx context.Context, systemPrompt, userPrompt string) (model.OrchestrationPlan, error) {
	var lastInvalidReason string

	for attempt := 0; attempt <= p.maxRetryCount; attempt++ {
		var raw planSchema
		_, err := p.client.Chat(ctx, llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			SchemaName:   "orchestration_plan",
			Schema:       llm.GenerateSchema[planSchema](),
			Temperature:  llm.Temp(1.0),
			MaxTokens:    4096,
		}, &raw)
		if err != nil {
			return model.OrchestrationPlan{}, &PlannerError{Err: err}
		}

		plan := toOrchestrationPlan(raw)
		if reason, valid := validateDAG(plan); valid {
			if attempt > 0 {
				slog.InfoContext(ctx, "planner produced a valid plan after retry", "attempts", attempt+1)
			}
			return plan, nil
		} else {
			lastInvalidReason = reason
			slog.WarnContext(ctx, "planner produced an invalid plan, retrying", "attempt", attempt+1, "reason", reason)
		}
	}

	return model.OrchestrationPlan{}, &InvalidPlanError{Reason: lastInvalidReason}
}

func toOrchestrationPlan(raw planSchema) model.OrchestrationPlan {
	tasks := make([]model.Task, 0, len(raw.Tasks))
	for _, t := range raw.Tasks {
		tasks = append(tasks, model.Task{
			TaskID:       t.TaskID,
			Agent:        model.Agent(t.Agent),
			Instruction:  t.Instruction,
			Dependencies: t.Dependencies,
		})
	}
	return model.OrchestrationPlan{
		GreetingMessage: raw.GreetingMessage,
		Analysis:        raw.Analysis,
		SynthesisPlan:   raw.SynthesisPlan,
		Tasks:           tasks,
	}
}

// validateDAG checks both failure modes the scheduler cannot tolerate:
// a dependency referencing a task_id absent from the plan (including
// self-reference), and a cycle among present ids — the latter undetectable
// by schema validation alone and a known gap in the source planner.
func validateDAG(plan model.OrchestrationPlan) (reason string, valid bool) {
	ids := make(map[string]struct{}, len(plan.Tasks))
	for _, t := range plan.Tasks {
		ids[t.TaskID] = struct{}{}
	}

	deps := make(map[string][]string, len(plan.Tasks))
	for _, t := range plan.Tasks {
		deps[t.TaskID] = t.Dependencies
		for _, d := range t.Dependencies {
			if d == t.TaskID {
				return fmt.Sprintf("task %q depends on itself", t.TaskID), false
			}
			if _, ok := ids[d]; !ok {
				return fmt.Sprintf("task %q depends on nonexistent task %q", t.TaskID, d), false
			}
		}
	}

	if cyclic, taskID := hasCycle(plan.Tasks, deps); cyclic {
		return fmt.Sprintf("cycle detected through task %q", taskID), false
	}

	return "", true
}

// color marks DFS visitation state for cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// hasCycle runs a standard white/gray/black DFS: revisiting a gray node
// means the current path loops back on itself.
func hasCycle(tasks []model.Task, deps map[string][]string) (bool, string) {
	colors := make(map[string]color, len(tasks))
	for _, t := range tasks {
		colors[t.TaskID] = white
	}

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray
		for _, dep := range deps[id] {
			switch colors[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		colors[id] = black
		return false
	}

	for _, t := range tasks {
		if colors[t.TaskID] == white {
			if visit(t.TaskID) {
				return true, t.TaskID
			}
		}
	}
	return false, ""
}
