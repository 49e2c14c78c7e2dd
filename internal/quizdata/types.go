// Package quizdata defines quiz items and the sources they are loaded from.
package quizdata

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidItem marks quiz content that breaks an item invariant.
var ErrInvalidItem = errors.New("invalid quiz item")

// QuizItem is one multiple-choice question. Items are immutable once loaded.
type QuizItem struct {
	ID            int      `json:"id" yaml:"id"`
	Topic         string   `json:"topic" yaml:"topic"`
	Title         string   `json:"title" yaml:"title"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	Feedback      string   `json:"feedback" yaml:"feedback"`
}

// IsCorrect reports whether option is this item's correct answer.
func (q QuizItem) IsCorrect(option string) bool {
	return option == q.CorrectAnswer
}

// HasOption reports whether option is one of the item's choices.
func (q QuizItem) HasOption(option string) bool {
	return slices.Contains(q.Options, option)
}

// Validate checks the content invariants of a quiz set: at least two options
// per item, the correct answer among them, a non-empty topic, unique ids.
func Validate(items []QuizItem) error {
	seen := make(map[int]struct{}, len(items))
	var errs []error
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate id %d", ErrInvalidItem, item.ID))
			continue
		}
		seen[item.ID] = struct{}{}

		if strings.TrimSpace(item.Topic) == "" {
			errs = append(errs, fmt.Errorf("%w: item %d has no topic", ErrInvalidItem, item.ID))
		}
		if len(item.Options) < 2 {
			errs = append(errs, fmt.Errorf("%w: item %d has %d options, want at least 2", ErrInvalidItem, item.ID, len(item.Options)))
		}
		if !item.HasOption(item.CorrectAnswer) {
			errs = append(errs, fmt.Errorf("%w: item %d correct answer %q is not an option", ErrInvalidItem, item.ID, item.CorrectAnswer))
		}
	}
	return errors.Join(errs...)
}
