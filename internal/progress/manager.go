// Package progress owns quiz progress state: selected answers, completed
// question sets, bookmarks, and the topic filter, mirrored in memory and
// persisted to a kvstore.Store on every mutation.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/kvstore"
	"github.com/p-n-ai/pai-quiz/internal/quizdata"
)

// ResetScope selects which records Reset clears.
type ResetScope string

const (
	ResetAnswers   ResetScope = "answers"
	ResetBookmarks ResetScope = "bookmarks"
	ResetAll       ResetScope = "all"
)

// ParseResetScope validates a reset scope name.
func ParseResetScope(s string) (ResetScope, error) {
	switch scope := ResetScope(s); scope {
	case ResetAnswers, ResetBookmarks, ResetAll:
		return scope, nil
	default:
		return "", fmt.Errorf("unknown reset scope %q (want answers, bookmarks or all)", s)
	}
}

const (
	readAttempts   = 3
	readRetryDelay = 10 * time.Millisecond
)

// Config holds dependencies for the manager.
type Config struct {
	Store  kvstore.Store
	Source quizdata.Source
	Events EventLogger
}

// Manager holds quiz progress for one learner.
//
// Completion is tracked per scope: one global set (used by the "All" and
// "Bookmarked" views) and one set per topic. A first answer is recorded in
// the global set and in the set of the topic selected at the time; sets of
// other topics are not back-filled.
type Manager struct {
	store  kvstore.Store
	source quizdata.Source
	events EventLogger

	mu        sync.RWMutex
	items     []quizdata.QuizItem
	loaded    bool
	loading   bool
	loadErr   string
	loadSeq   uint64
	topic     string
	answers   Answers
	bookmarks Bookmarks
	// scopes mirrors every completed set read or written this session,
	// keyed by storage key. The mirror stays authoritative if a write fails.
	scopes map[string]IDSet
	// unread holds keys whose last read failed. Their writes are held back
	// until a read succeeds and the stored value has been merged in.
	unread map[string]struct{}

	subs    map[int]chan Snapshot
	nextSub int
}

// NewManager creates a manager and restores persisted progress. The quiz set
// is not fetched until Load is called.
func NewManager(ctx context.Context, cfg Config) *Manager {
	store := cfg.Store
	if store == nil {
		store = kvstore.NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}

	m := &Manager{
		store:  store,
		source: cfg.Source,
		events: events,
		topic:  TopicAll,
		scopes: make(map[string]IDSet),
		unread: make(map[string]struct{}),
		subs:   make(map[int]chan Snapshot),
	}

	m.answers = DecodeAnswers(m.read(ctx, KeyAnswers))
	m.bookmarks = DecodeBookmarks(m.read(ctx, KeyBookmarks))
	m.scopes[KeyCompleted] = DecodeIDSet(m.read(ctx, KeyCompleted))

	slog.Info("progress restored",
		"answers", len(m.answers),
		"completed", len(m.scopes[KeyCompleted]),
		"bookmarks", len(m.bookmarks),
	)
	return m
}

// Load fetches the quiz set. Only the most recent call's result is applied;
// a response that arrives after a newer Load started is discarded.
func (m *Manager) Load(ctx context.Context) error {
	if m.source == nil {
		err := fmt.Errorf("quiz data source is not configured")
		m.mu.Lock()
		m.loadErr = fmt.Sprintf("failed to load quiz data: %v", err)
		m.notifyLocked()
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.loadSeq++
	seq := m.loadSeq
	m.loading = true
	m.notifyLocked()
	m.mu.Unlock()

	items, err := m.source.Fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.loadSeq {
		slog.Debug("discarding stale quiz load", "seq", seq, "latest", m.loadSeq)
		return err
	}
	m.loading = false

	if err != nil {
		m.loadErr = fmt.Sprintf("failed to load quiz data: %v", err)
		slog.Error("quiz load failed", "error", err)
		m.notifyLocked()
		return fmt.Errorf("loading quiz data: %w", err)
	}

	if verr := quizdata.Validate(items); verr != nil {
		slog.Warn("quiz data violates content invariants", "error", verr)
	}

	m.items = items
	m.loaded = true
	m.loadErr = ""
	m.logEvent(Event{Type: EventQuizLoaded, Data: map[string]any{"items": len(items)}})
	slog.Info("quiz data loaded", "items", len(items))
	m.notifyLocked()
	return nil
}

// SetSelectedTopic switches the topic filter and reloads the completed set
// for the new scope. The previous scope's set is not merged in.
func (m *Manager) SetSelectedTopic(ctx context.Context, topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if topic == "" {
		topic = TopicAll
	}
	m.recoverLocked(ctx)
	m.topic = topic
	m.reloadCompletedLocked(ctx)
	m.notifyLocked()
}

// reloadCompletedLocked makes the completed set of the current scope
// available, reading it from the store the first time the scope is used.
func (m *Manager) reloadCompletedLocked(ctx context.Context) IDSet {
	key := completedKey(m.topic)
	if set, ok := m.scopes[key]; ok {
		return set
	}
	set := DecodeIDSet(m.read(ctx, key))
	m.scopes[key] = set
	return set
}

// Answer records option as the answer to questionID and reports whether it
// was accepted. Only questions in the current view can be answered. A
// completed question is locked until every question in the current view is
// completed; a locked answer is a no-op.
func (m *Manager) Answer(ctx context.Context, questionID int, option string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.itemLocked(questionID)
	if !ok {
		slog.Warn("answer for unknown question ignored", "question_id", questionID)
		return false
	}
	if !item.HasOption(option) {
		slog.Warn("answer with unknown option ignored", "question_id", questionID, "option", option)
		return false
	}

	m.recoverLocked(ctx)
	completed := m.reloadCompletedLocked(ctx)
	snap := m.snapshotLocked()
	if !slices.ContainsFunc(snap.FilteredSet(), func(q quizdata.QuizItem) bool { return q.ID == questionID }) {
		slog.Warn("answer for question outside the current view ignored",
			"question_id", questionID,
			"topic", m.topic,
		)
		return false
	}

	alreadyCompleted := completed.Has(questionID)
	if alreadyCompleted && !snap.AllCompleted() {
		m.logEvent(Event{Type: EventAnswerRejected, QuestionID: questionID, Topic: m.topic})
		return false
	}

	m.answers[questionID] = option
	m.persistLocked(ctx, KeyAnswers)

	if !alreadyCompleted {
		m.markCompletedLocked(ctx, questionID)
	}

	m.logEvent(Event{
		Type:       EventAnswerSubmitted,
		QuestionID: questionID,
		Topic:      m.topic,
		Data: map[string]any{
			"correct": item.IsCorrect(option),
			"retry":   alreadyCompleted,
		},
	})
	m.notifyLocked()
	return true
}

// markCompletedLocked adds id to the global set and, for a topic view, to
// that topic's set, persisting each.
func (m *Manager) markCompletedLocked(ctx context.Context, id int) {
	keys := []string{KeyCompleted}
	if scoped := completedKey(m.topic); scoped != KeyCompleted {
		keys = append(keys, scoped)
	}
	for _, key := range keys {
		set, ok := m.scopes[key]
		if !ok {
			set = DecodeIDSet(m.read(ctx, key))
			m.scopes[key] = set
		}
		set[id] = struct{}{}
		m.persistLocked(ctx, key)
	}
}

// ToggleBookmark flips the bookmark flag of questionID regardless of its
// answer state and returns the new flag.
func (m *Manager) ToggleBookmark(ctx context.Context, questionID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.itemLocked(questionID); !ok {
		slog.Warn("bookmark for unknown question ignored", "question_id", questionID)
		return m.bookmarks[questionID]
	}

	m.recoverLocked(ctx)
	on := !m.bookmarks[questionID]
	m.bookmarks[questionID] = on
	m.persistLocked(ctx, KeyBookmarks)

	m.logEvent(Event{
		Type:       EventBookmarkToggled,
		QuestionID: questionID,
		Data:       map[string]any{"bookmarked": on},
	})
	m.notifyLocked()
	return on
}

// Reset clears the persisted keys and in-memory mirrors for scope.
func (m *Manager) Reset(ctx context.Context, scope ResetScope) error {
	if _, err := ParseResetScope(string(scope)); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if scope == ResetAnswers || scope == ResetAll {
		keys := map[string]struct{}{KeyAnswers: {}, KeyCompleted: {}}
		for key := range m.scopes {
			keys[key] = struct{}{}
		}
		for _, topic := range quizdata.Topics(m.items) {
			keys[completedKey(topic)] = struct{}{}
		}
		for _, key := range slices.Sorted(maps.Keys(keys)) {
			m.remove(ctx, key)
		}
		m.answers = Answers{}
		m.scopes = map[string]IDSet{KeyCompleted: {}}
		if key := completedKey(m.topic); key != KeyCompleted {
			m.scopes[key] = IDSet{}
		}
	}
	if scope == ResetBookmarks || scope == ResetAll {
		m.remove(ctx, KeyBookmarks)
		m.bookmarks = Bookmarks{}
	}

	m.logEvent(Event{Type: EventProgressReset, Data: map[string]any{"scope": string(scope)}})
	slog.Info("progress reset", "scope", scope)
	m.notifyLocked()
	return nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked().clone()
}

// Summaries returns per-topic progress measured against the global
// completed set, with "All" first.
func (m *Manager) Summaries() []TopicSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return TopicSummaries(m.items, m.answers, m.scopes[KeyCompleted], m.bookmarks)
}

// FilteredSet returns the items in the current view.
func (m *Manager) FilteredSet() []quizdata.QuizItem {
	return m.Snapshot().FilteredSet()
}

// CompletedCount returns the number of completed items in the current view.
func (m *Manager) CompletedCount() int {
	return m.Snapshot().CompletedCount()
}

// CompletionPercent returns the completion percentage of the current view.
func (m *Manager) CompletionPercent() int {
	return m.Snapshot().CompletionPercent()
}

// ProgressPercent returns the correct-answer percentage of the current view.
func (m *Manager) ProgressPercent() int {
	return m.Snapshot().ProgressPercent()
}

// Subscribe returns a channel that receives a snapshot after every state
// change. Slow readers only see the latest snapshot. Call cancel to stop.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Snapshot, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (m *Manager) notifyLocked() {
	if len(m.subs) == 0 {
		return
	}
	snap := m.snapshotLocked().clone()
	for _, ch := range m.subs {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// snapshotLocked shares the manager's maps; callers that let it escape must
// clone it.
func (m *Manager) snapshotLocked() Snapshot {
	completed, ok := m.scopes[completedKey(m.topic)]
	if !ok {
		completed = IDSet{}
	}
	return Snapshot{
		Items:     m.items,
		Loaded:    m.loaded,
		Topic:     m.topic,
		Answers:   m.answers,
		Completed: completed,
		Bookmarks: m.bookmarks,
		Loading:   m.loading,
		LoadError: m.loadErr,
	}
}

func (s Snapshot) clone() Snapshot {
	s.Items = slices.Clone(s.Items)
	s.Answers = maps.Clone(s.Answers)
	s.Completed = maps.Clone(s.Completed)
	s.Bookmarks = maps.Clone(s.Bookmarks)
	return s
}

func (m *Manager) itemLocked(id int) (quizdata.QuizItem, bool) {
	for _, item := range m.items {
		if item.ID == id {
			return item, true
		}
	}
	return quizdata.QuizItem{}, false
}

// read fetches a key, retrying briefly. If every attempt fails the key is
// treated as absent and marked unread, which holds back its writes.
func (m *Manager) read(ctx context.Context, key string) (string, bool) {
	var err error
	for attempt := 1; ; attempt++ {
		v, found, getErr := m.store.Get(ctx, key)
		if getErr == nil {
			delete(m.unread, key)
			return v, found
		}
		err = getErr
		if attempt == readAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(readRetryDelay):
		}
	}
	m.unread[key] = struct{}{}
	slog.Error("progress read failed, holding writes to key until it can be read",
		"key", key,
		"error", err,
	)
	return "", false
}

// recoverLocked re-reads keys whose earlier read failed and merges the stored
// values into memory. In-memory changes win over stored ones; completed sets
// are unioned.
func (m *Manager) recoverLocked(ctx context.Context) {
	for _, key := range slices.Sorted(maps.Keys(m.unread)) {
		raw, found, err := m.store.Get(ctx, key)
		if err != nil {
			continue
		}
		delete(m.unread, key)

		switch key {
		case KeyAnswers:
			stored := DecodeAnswers(raw, found)
			maps.Copy(stored, m.answers)
			m.answers = stored
		case KeyBookmarks:
			stored := DecodeBookmarks(raw, found)
			maps.Copy(stored, m.bookmarks)
			m.bookmarks = stored
		default:
			set, ok := m.scopes[key]
			if !ok {
				set = IDSet{}
				m.scopes[key] = set
			}
			maps.Copy(set, DecodeIDSet(raw, found))
		}
		slog.Info("progress key recovered", "key", key)
		m.persistLocked(ctx, key)
	}
}

// persistLocked writes the in-memory value of key. Failures are logged; the
// in-memory state stays authoritative for the rest of the session.
func (m *Manager) persistLocked(ctx context.Context, key string) {
	if _, held := m.unread[key]; held {
		slog.Warn("progress write held back, key could not be read", "key", key)
		return
	}

	var value string
	switch key {
	case KeyAnswers:
		value = EncodeAnswers(m.answers)
	case KeyBookmarks:
		value = EncodeBookmarks(m.bookmarks)
	default:
		value = EncodeIDSet(m.scopes[key])
	}
	if err := m.store.Set(ctx, key, value); err != nil {
		slog.Error("progress write failed", "key", key, "error", err)
	}
}

// remove deletes key. A successful delete makes the stored value known
// (absent), so the key is no longer held back.
func (m *Manager) remove(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		slog.Error("progress delete failed", "key", key, "error", err)
		return
	}
	delete(m.unread, key)
}

func (m *Manager) logEvent(event Event) {
	if err := m.events.LogEvent(event); err != nil {
		slog.Warn("failed to log progress event", "type", event.Type, "error", err)
	}
}
