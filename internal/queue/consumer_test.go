package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestParseMessageRequiredFields(t *testing.T) {
	raw := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"interaction_token": "tok-123",
			"channel_id":        "chan-1",
			"prompt":            "plan a trip to Kyoto",
		},
	}

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Dispatch.InteractionToken != "tok-123" {
		t.Errorf("InteractionToken = %q, want %q", msg.Dispatch.InteractionToken, "tok-123")
	}
	if msg.Attempt != 1 {
		t.Errorf("Attempt defaults to 1, got %d", msg.Attempt)
	}
}

func TestParseMessageMissingRequiredField(t *testing.T) {
	raw := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"channel_id": "chan-1",
			"prompt":     "plan a trip",
		},
	}

	if _, err := ParseMessage(raw); err == nil {
		t.Fatal("expected an error when interaction_token is missing")
	}
}

func TestParseMessagePreservesExplicitAttempt(t *testing.T) {
	raw := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"interaction_token": "tok-123",
			"channel_id":        "chan-1",
			"prompt":            "plan a trip",
			"attempt":           "3",
		},
	}

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Attempt != 3 {
		t.Errorf("Attempt = %d, want 3", msg.Attempt)
	}
	if msg.Dispatch.Attempt != 3 {
		t.Errorf("Dispatch.Attempt = %d, want 3", msg.Dispatch.Attempt)
	}
}

func TestParseMessagePreservesCorrelationID(t *testing.T) {
	raw := redis.XMessage{
		ID: "1-0",
		Values: map[string]any{
			"interaction_token": "tok-123",
			"channel_id":        "chan-1",
			"prompt":            "plan a trip",
			"correlation_id":    "987654321",
		},
	}

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Dispatch.CorrelationID != 987654321 {
		t.Errorf("CorrelationID = %d, want 987654321", msg.Dispatch.CorrelationID)
	}
}

func TestMessageValuesRoundTrip(t *testing.T) {
	dispatch := PlanDispatch{
		InteractionToken:  "tok-123",
		ChannelID:         "chan-1",
		OriginalMessageID: "msg-1",
		Prompt:            "plan a trip",
		CorrelationID:     42,
	}

	values := messageValues(dispatch, 2)

	if values["interaction_token"] != dispatch.InteractionToken {
		t.Errorf("interaction_token = %v, want %v", values["interaction_token"], dispatch.InteractionToken)
	}
	if values["attempt"] != 2 {
		t.Errorf("attempt = %v, want 2", values["attempt"])
	}
	if values["correlation_id"] != int64(42) {
		t.Errorf("correlation_id = %v, want 42", values["correlation_id"])
	}
}
