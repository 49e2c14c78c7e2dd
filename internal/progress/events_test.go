package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/progress"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := progress.NewMemoryEventLogger()

	err := logger.LogEvent(progress.Event{
		Type:       progress.EventBookmarkToggled,
		QuestionID: 2,
		Data:       map[string]any{"bookmarked": true},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != progress.EventBookmarkToggled {
		t.Errorf("Type = %q, want %q", events[0].Type, progress.EventBookmarkToggled)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	if err := progress.NewMemoryEventLogger().LogEvent(progress.Event{}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := progress.NewPostgresEventLogger(nil, "ns")

	if err := logger.LogEvent(progress.Event{Type: progress.EventProgressReset}); err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestNopEventLogger(t *testing.T) {
	if err := (progress.NopEventLogger{}).LogEvent(progress.Event{}); err != nil {
		t.Errorf("LogEvent() error = %v", err)
	}
}
