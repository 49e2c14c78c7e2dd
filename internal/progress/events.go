package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event types recorded by the manager.
const (
	EventAnswerSubmitted = "answer_submitted"
	EventAnswerRejected  = "answer_rejected"
	EventBookmarkToggled = "bookmark_toggled"
	EventProgressReset   = "progress_reset"
	EventQuizLoaded      = "quiz_loaded"
)

const eventTimeout = 5 * time.Second

// Event is one analytics record about a progress mutation.
type Event struct {
	Type       string
	QuestionID int
	Topic      string
	Data       map[string]any
	CreatedAt  time.Time
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the progress_events table.
type PostgresEventLogger struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewPostgresEventLogger(pool *pgxpool.Pool, namespace string) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool, namespace: namespace}
}

func (l *PostgresEventLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := maps.Clone(event.Data)
	if payload == nil {
		payload = map[string]any{}
	}
	if event.Topic != "" {
		payload["topic"] = event.Topic
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if _, err := l.pool.Exec(ctx,
		`INSERT INTO progress_events (namespace, event_type, question_id, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		l.namespace,
		event.Type,
		nullIfZero(event.QuestionID),
		string(data),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"question_id", event.QuestionID,
	)
	return nil
}

func nullIfZero(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
