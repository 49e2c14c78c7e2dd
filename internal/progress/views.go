package progress

import (
	"math"

	"github.com/p-n-ai/pai-quiz/internal/quizdata"
)

// Snapshot is a copy of the manager state at one point in time. All derived
// views are pure functions of a Snapshot.
type Snapshot struct {
	Items     []quizdata.QuizItem `json:"items"`
	Loaded    bool                `json:"loaded"`
	Topic     string              `json:"topic"`
	Answers   Answers             `json:"selectedAnswers"`
	Completed IDSet               `json:"-"`
	Bookmarks Bookmarks           `json:"bookmarkedQuestions"`
	Loading   bool                `json:"isLoading"`
	LoadError string              `json:"loadError,omitempty"`
}

// FilteredSet returns the items in view for the selected topic.
func (s Snapshot) FilteredSet() []quizdata.QuizItem {
	switch s.Topic {
	case TopicAll, "":
		return s.Items
	case TopicBookmarked:
		out := make([]quizdata.QuizItem, 0)
		for _, item := range s.Items {
			if s.Bookmarks[item.ID] {
				out = append(out, item)
			}
		}
		return out
	default:
		out := make([]quizdata.QuizItem, 0)
		for _, item := range s.Items {
			if item.Topic == s.Topic {
				out = append(out, item)
			}
		}
		return out
	}
}

// CompletedCount counts items in view that are in the completed set.
func (s Snapshot) CompletedCount() int {
	n := 0
	for _, item := range s.FilteredSet() {
		if s.Completed.Has(item.ID) {
			n++
		}
	}
	return n
}

// CorrectCount counts items in view whose selected answer is correct.
func (s Snapshot) CorrectCount() int {
	n := 0
	for _, item := range s.FilteredSet() {
		if option, ok := s.Answers[item.ID]; ok && item.IsCorrect(option) {
			n++
		}
	}
	return n
}

// CompletionPercent is the rounded share of in-view items answered at least
// once. An empty view is 0%.
func (s Snapshot) CompletionPercent() int {
	return percent(s.CompletedCount(), len(s.FilteredSet()))
}

// AllCompleted reports whether every in-view item is completed. It is exact,
// unlike CompletionPercent which can round up to 100. An empty view is never
// complete.
func (s Snapshot) AllCompleted() bool {
	n := len(s.FilteredSet())
	return n > 0 && s.CompletedCount() == n
}

// ProgressPercent is the rounded share of in-view items answered correctly.
func (s Snapshot) ProgressPercent() int {
	return percent(s.CorrectCount(), len(s.FilteredSet()))
}

// Views bundles the derived values for presentation layers.
type Views struct {
	Total             int `json:"total"`
	CompletedCount    int `json:"completedCount"`
	CompletionPercent int `json:"completionPercent"`
	ProgressPercent   int `json:"progressPercent"`
}

// Views computes all derived values at once.
func (s Snapshot) Views() Views {
	filtered := s.FilteredSet()
	completed := s.CompletedCount()
	correct := s.CorrectCount()
	return Views{
		Total:             len(filtered),
		CompletedCount:    completed,
		CompletionPercent: percent(completed, len(filtered)),
		ProgressPercent:   percent(correct, len(filtered)),
	}
}

// TopicSummary is the completion and correctness of one topic measured
// against a single completed set.
type TopicSummary struct {
	Topic             string `json:"topic"`
	Total             int    `json:"total"`
	Completed         int    `json:"completed"`
	Correct           int    `json:"correct"`
	Bookmarked        int    `json:"bookmarked"`
	CompletionPercent int    `json:"completionPercent"`
	ProgressPercent   int    `json:"progressPercent"`
}

// TopicSummaries returns one summary for "All" followed by one per distinct
// topic, measured against the given completed set.
func TopicSummaries(items []quizdata.QuizItem, answers Answers, completed IDSet, bookmarks Bookmarks) []TopicSummary {
	topics := quizdata.Topics(items)
	summaries := make([]TopicSummary, 0, len(topics)+1)
	for _, topic := range append([]string{TopicAll}, topics...) {
		snap := Snapshot{
			Items:     items,
			Topic:     topic,
			Answers:   answers,
			Completed: completed,
			Bookmarks: bookmarks,
		}
		filtered := snap.FilteredSet()
		bookmarked := 0
		for _, item := range filtered {
			if bookmarks[item.ID] {
				bookmarked++
			}
		}
		completedN := snap.CompletedCount()
		correctN := snap.CorrectCount()
		summaries = append(summaries, TopicSummary{
			Topic:             topic,
			Total:             len(filtered),
			Completed:         completedN,
			Correct:           correctN,
			Bookmarked:        bookmarked,
			CompletionPercent: percent(completedN, len(filtered)),
			ProgressPercent:   percent(correctN, len(filtered)),
		})
	}
	return summaries
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}
