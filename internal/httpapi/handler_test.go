package httpapi_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"travelagency.app/bot/internal/httpapi"
	"travelagency.app/bot/internal/queue"
)

type mockProducer struct {
	enqueueFn func(ctx context.Context, dispatch queue.PlanDispatch) error
	enqueued  []queue.PlanDispatch
}

func (m *mockProducer) Enqueue(ctx context.Context, dispatch queue.PlanDispatch) error {
	m.enqueued = append(m.enqueued, dispatch)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, dispatch)
	}
	return nil
}

func (m *mockProducer) Close() error { return nil }

var _ = Describe("Handler", func() {
	var (
		router   *gin.Engine
		producer *mockProducer
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		producer = &mockProducer{}
		h := &httpapi.Handler{Producer: producer}
		router.POST("/interaction", h.HandleInteraction)
	})

	It("replies pong to a ping interaction", func() {
		body := []byte(`{"type":1,"id":"1","token":"tok"}`)
		req := httptest.NewRequest(http.MethodPost, "/interaction", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"type":1`))
		Expect(producer.enqueued).To(BeEmpty())
	})

	It("enqueues a plan dispatch and defers for a command interaction", func() {
		body := []byte(`{
			"type": 2,
			"id": "msg-1",
			"token": "tok-1",
			"channel_id": "chan-1",
			"data": {"options": [{"name": "prompt", "value": "plan a weekend in Kyoto"}]}
		}`)
		req := httptest.NewRequest(http.MethodPost, "/interaction", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(producer.enqueued).To(HaveLen(1))
		Expect(producer.enqueued[0].Prompt).To(Equal("plan a weekend in Kyoto"))
		Expect(producer.enqueued[0].ChannelID).To(Equal("chan-1"))
		Expect(producer.enqueued[0].InteractionToken).To(Equal("tok-1"))
	})

	It("returns 500 when enqueueing fails", func() {
		producer.enqueueFn = func(_ context.Context, _ queue.PlanDispatch) error {
			return context.DeadlineExceeded
		}
		body := []byte(`{
			"type": 2,
			"id": "msg-1",
			"token": "tok-1",
			"channel_id": "chan-1",
			"data": {"options": [{"name": "prompt", "value": "plan a trip"}]}
		}`)
		req := httptest.NewRequest(http.MethodPost, "/interaction", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("returns 500 for an unparseable body", func() {
		req := httptest.NewRequest(http.MethodPost, "/interaction", bytes.NewBuffer([]byte("not json")))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("returns 400 for an unrecognized interaction type", func() {
		body := []byte(`{"type":99,"id":"1","token":"tok"}`)
		req := httptest.NewRequest(http.MethodPost, "/interaction", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthz", httpapi.HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("HealthCheck() status = %d, want %d", w.Code, http.StatusOK)
	}
}
