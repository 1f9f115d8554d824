package collector

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/partitura/partitura/internal/mq"
)

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})

	if c.logger == nil {
		t.Error("logger should default to slog.Default")
	}
}

// --- Handler Tests ---

func TestHandleRunFinished_NoReport(t *testing.T) {
	c := New(Config{})

	// Событие без отчёта подтверждается без обращения к архиву
	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:   "m1",
			Type: mq.MessageTypeRunCompleted,
			Payload: map[string]any{
				"run_id":        uuid.New().String(),
				"template_name": "feature",
				"status":        "COMPLETED",
				"report":        nil,
			},
		},
	}

	if err := c.handleRunFinished(context.Background(), delivery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleRunFinished_BadPayload(t *testing.T) {
	c := New(Config{})

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:      "m2",
			Type:    mq.MessageTypeRunCompleted,
			Payload: map[string]any{"run_id": "not-a-uuid"},
		},
	}

	if err := c.handleRunFinished(context.Background(), delivery); err == nil {
		t.Error("expected error for malformed payload")
	}
}
