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

type mockNamingClient struct {
	name string
	err  error
}

func (m *mockNamingClient) Chat(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, _ := json.Marshal(map[string]string{"thread_name": m.name})
	if err := json.Unmarshal(data, result); err != nil {
		return nil, err
	}
	return &llm.Response{}, nil
}

func (m *mockNamingClient) Model() string { return "mock-naming" }

var _ = Describe("NameThread", func() {
	It("returns the provider's thread name", func() {
		client := &mockNamingClient{name: "Kyoto Weekend Getaway"}

		got := orchestrator.NameThread(context.Background(), client, "name this", "plan a weekend in Kyoto")
		Expect(got).To(Equal("Kyoto Weekend Getaway"))
	})

	It("falls back to a generic title on provider error", func() {
		client := &mockNamingClient{err: errors.New("provider down")}

		got := orchestrator.NameThread(context.Background(), client, "name this", "plan a trip")
		Expect(got).To(Equal("Travel Plan"))
	})

	It("falls back to a generic title on an empty thread name", func() {
		client := &mockNamingClient{name: ""}

		got := orchestrator.NameThread(context.Background(), client, "name this", "plan a trip")
		Expect(got).To(Equal("Travel Plan"))
	})
})
