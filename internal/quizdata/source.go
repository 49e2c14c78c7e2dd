package quizdata

import (
	"context"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Source supplies the quiz set. Fetch is called once per Load.
type Source interface {
	Fetch(ctx context.Context) ([]QuizItem, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]QuizItem, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]QuizItem, error) {
	return f(ctx)
}

// StaticSource serves a fixed, bundled quiz set.
type StaticSource struct {
	items []QuizItem
}

// NewStaticSource copies items into a new StaticSource.
func NewStaticSource(items []QuizItem) *StaticSource {
	return &StaticSource{items: slices.Clone(items)}
}

func (s *StaticSource) Fetch(ctx context.Context) ([]QuizItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.items), nil
}

// Topics returns the distinct topics of items, ordered by English collation.
func Topics(items []QuizItem) []string {
	seen := make(map[string]struct{})
	topics := make([]string, 0)
	for _, item := range items {
		if _, ok := seen[item.Topic]; ok {
			continue
		}
		seen[item.Topic] = struct{}{}
		topics = append(topics, item.Topic)
	}

	collate.New(language.English, collate.IgnoreCase).SortStrings(topics)
	return topics
}
