package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/orchestrator"
)

type mockPlanningClient struct {
	responses []map[string]any
	callCount int
}

func (m *mockPlanningClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	if m.callCount >= len(m.responses) {
		m.callCount++
		return nil, errors.New("mock planning client: no more responses queued")
	}
	data, err := json.Marshal(m.responses[m.callCount])
	if err != nil {
		return nil, err
	}
	m.callCount++
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}
	return &llm.Response{PromptTokens: 100, CompletionTokens: 50}, nil
}

func (m *mockPlanningClient) Model() string { return "mock-planner" }

func task(id, agent string, deps ...string) map[string]any {
	if deps == nil {
		deps = []string{}
	}
	return map[string]any{
		"task_id":      id,
		"agent":        agent,
		"instruction":  "do something",
		"dependencies": deps,
	}
}

func planResponse(tasks ...map[string]any) map[string]any {
	return map[string]any{
		"greeting_message": "On it!",
		"analysis":         "Breaking this down into subtasks.",
		"synthesis_plan":   "Combine everything into an itinerary.",
		"tasks":            tasks,
	}
}

var _ = Describe("Planner", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("valid acyclic plan on the first attempt", func() {
		It("returns the plan without retrying", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(task("t1", "Food"), task("t2", "Transport", "t1")),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 3)

			plan, err := planner.Plan(ctx, "system", "plan a trip to Kyoto")

			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Tasks).To(HaveLen(2))
			Expect(mockClient.callCount).To(Equal(1))
		})
	})

	Context("plan with a direct cycle", func() {
		It("retries and then succeeds once a valid plan is sampled", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(task("t1", "Food", "t2"), task("t2", "Transport", "t1")),
					planResponse(task("t1", "Food"), task("t2", "Transport", "t1")),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 3)

			plan, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Tasks).To(HaveLen(2))
			Expect(mockClient.callCount).To(Equal(2))
		})
	})

	Context("plan with a self-dependency", func() {
		It("is rejected as invalid", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(task("t1", "Food", "t1")),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 0)

			_, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).To(HaveOccurred())
			var invalid *orchestrator.InvalidPlanError
			Expect(errors.As(err, &invalid)).To(BeTrue())
		})
	})

	Context("plan with a dependency on a nonexistent task", func() {
		It("is rejected as invalid", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(task("t1", "Food", "ghost")),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 0)

			_, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).To(HaveOccurred())
		})
	})

	Context("plan with a longer cycle (three tasks)", func() {
		It("is rejected as invalid even when no task depends on itself", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(
						task("t1", "Food", "t3"),
						task("t2", "Transport", "t1"),
						task("t3", "History", "t2"),
					),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 0)

			_, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).To(HaveOccurred())
		})
	})

	Context("retry budget exhausted", func() {
		It("surfaces the last invalid reason", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{
					planResponse(task("t1", "Food", "t1")),
					planResponse(task("t1", "Food", "t1")),
				},
			}
			planner := orchestrator.NewPlanner(mockClient, 1)

			_, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).To(HaveOccurred())
			var invalid *orchestrator.InvalidPlanError
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Reason).To(ContainSubstring("depends on itself"))
			Expect(mockClient.callCount).To(Equal(2))
		})
	})

	Context("zero tasks", func() {
		It("is a valid plan with an empty task list", func() {
			mockClient := &mockPlanningClient{
				responses: []map[string]any{planResponse()},
			}
			planner := orchestrator.NewPlanner(mockClient, 0)

			plan, err := planner.Plan(ctx, "system", "just chatting, no trip needed")

			Expect(err).NotTo(HaveOccurred())
			Expect(plan.Tasks).To(BeEmpty())
		})
	})

	Context("provider error", func() {
		It("returns a PlannerError without retrying", func() {
			mockClient := &mockPlanningClient{responses: nil}
			planner := orchestrator.NewPlanner(mockClient, 3)

			_, err := planner.Plan(ctx, "system", "plan a trip")

			Expect(err).To(HaveOccurred())
			var plannerErr *orchestrator.PlannerError
			Expect(errors.As(err, &plannerErr)).To(BeTrue())
			Expect(mockClient.callCount).To(Equal(1))
		})
	})
})
