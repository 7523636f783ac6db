package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"travelagency.app/bot/common/llm"
	"travelagency.app/bot/internal/model"
	"travelagency.app/bot/internal/orchestrator"
)

type mockSynthesisClient struct {
	result  map[string]any
	err     error
	lastReq llm.Request
}

func (m *mockSynthesisClient) Chat(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	data, err := json.Marshal(m.result)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}
	return &llm.Response{}, nil
}

func (m *mockSynthesisClient) Model() string { return "mock-synthesis" }

var _ = Describe("Synthesize", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("combines subtask contexts into the final result", func() {
		client := &mockSynthesisClient{result: map[string]any{"final_result": "Here is your itinerary."}}
		messages := []model.Message{
			{Role: "system", Content: "you are a travel planner"},
			{Role: "user", Content: "plan a weekend in Kyoto"},
		}
		contexts := []model.Context{
			{TaskID: "t1", Agent: model.AgentFood, Content: "Try Nishiki Market."},
		}

		result, err := orchestrator.Synthesize(ctx, client, "Combine: $RESULTS", messages, contexts)
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal("Here is your itinerary."))
		Expect(client.lastReq.SystemPrompt).To(Equal("you are a travel planner"))
		Expect(client.lastReq.UserPrompt).To(ContainSubstring("Nishiki Market"))
	})

	It("wraps a provider error as a SynthesizerError", func() {
		client := &mockSynthesisClient{err: errors.New("provider down")}

		_, err := orchestrator.Synthesize(ctx, client, "Combine: $RESULTS", nil, nil)
		Expect(err).To(HaveOccurred())
		var synthErr *orchestrator.SynthesizerError
		Expect(errors.As(err, &synthErr)).To(BeTrue())
	})
})
