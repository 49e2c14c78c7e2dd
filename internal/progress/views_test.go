package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quizdata"
)

func viewItems() []quizdata.QuizItem {
	return []quizdata.QuizItem{
		{ID: 1, Topic: "Math", Options: []string{"3", "4"}, CorrectAnswer: "4"},
		{ID: 2, Topic: "Science", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectAnswer: "Mars"},
		{ID: 3, Topic: "Math", Options: []string{"0", "7"}, CorrectAnswer: "0"},
	}
}

func TestSnapshot_FilteredSet(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		bookmarks progress.Bookmarks
		wantIDs   []int
	}{
		{"all", progress.TopicAll, nil, []int{1, 2, 3}},
		{"topic", "Math", nil, []int{1, 3}},
		{"unknown-topic", "History", nil, []int{}},
		{"bookmarked", progress.TopicBookmarked, progress.Bookmarks{2: true, 3: false}, []int{2}},
		{"bookmarked-none", progress.TopicBookmarked, progress.Bookmarks{}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := progress.Snapshot{Items: viewItems(), Topic: tt.topic, Bookmarks: tt.bookmarks}
			got := snap.FilteredSet()
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("FilteredSet() len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, item := range got {
				if item.ID != tt.wantIDs[i] {
					t.Errorf("FilteredSet()[%d].ID = %d, want %d", i, item.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestSnapshot_Percentages(t *testing.T) {
	tests := []struct {
		name           string
		topic          string
		answers        progress.Answers
		completed      progress.IDSet
		wantCompleted  int
		wantCompletion int
		wantProgress   int
	}{
		{"nothing-attempted", progress.TopicAll, progress.Answers{}, progress.IDSet{}, 0, 0, 0},
		{"one-of-three-correct", progress.TopicAll, progress.Answers{1: "4"}, progress.NewIDSet(1), 1, 33, 33},
		{"two-of-three-one-wrong", progress.TopicAll, progress.Answers{1: "4", 2: "Venus"}, progress.NewIDSet(1, 2), 2, 67, 33},
		{"math-half", "Math", progress.Answers{3: "0"}, progress.NewIDSet(3), 1, 50, 50},
		{"stale-ids-ignored", "Math", progress.Answers{99: "x"}, progress.NewIDSet(99), 0, 0, 0},
		{"empty-view", "History", progress.Answers{1: "4"}, progress.NewIDSet(1), 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := progress.Snapshot{
				Items:     viewItems(),
				Topic:     tt.topic,
				Answers:   tt.answers,
				Completed: tt.completed,
			}
			if got := snap.CompletedCount(); got != tt.wantCompleted {
				t.Errorf("CompletedCount() = %d, want %d", got, tt.wantCompleted)
			}
			if got := snap.CompletionPercent(); got != tt.wantCompletion {
				t.Errorf("CompletionPercent() = %d, want %d", got, tt.wantCompletion)
			}
			if got := snap.ProgressPercent(); got != tt.wantProgress {
				t.Errorf("ProgressPercent() = %d, want %d", got, tt.wantProgress)
			}

			v := snap.Views()
			if v.CompletionPercent != tt.wantCompletion || v.ProgressPercent != tt.wantProgress || v.CompletedCount != tt.wantCompleted {
				t.Errorf("Views() = %+v, disagrees with individual accessors", v)
			}
		})
	}
}

func TestSnapshot_BookmarkedEmptyNoDivision(t *testing.T) {
	snap := progress.Snapshot{Items: viewItems(), Topic: progress.TopicBookmarked}
	if got := snap.CompletionPercent(); got != 0 {
		t.Errorf("CompletionPercent() = %d, want 0", got)
	}
	if got := snap.ProgressPercent(); got != 0 {
		t.Errorf("ProgressPercent() = %d, want 0", got)
	}
}

func TestTopicSummaries(t *testing.T) {
	got := progress.TopicSummaries(
		viewItems(),
		progress.Answers{1: "4", 2: "Venus"},
		progress.NewIDSet(1, 2),
		progress.Bookmarks{3: true},
	)

	if len(got) != 3 {
		t.Fatalf("len(TopicSummaries()) = %d, want 3 (All, Math, Science)", len(got))
	}
	if got[0].Topic != progress.TopicAll || got[0].Total != 3 || got[0].Completed != 2 || got[0].Correct != 1 {
		t.Errorf("All summary = %+v", got[0])
	}
	if got[1].Topic != "Math" || got[1].CompletionPercent != 50 || got[1].ProgressPercent != 50 || got[1].Bookmarked != 1 {
		t.Errorf("Math summary = %+v", got[1])
	}
	if got[2].Topic != "Science" || got[2].CompletionPercent != 100 || got[2].ProgressPercent != 0 {
		t.Errorf("Science summary = %+v", got[2])
	}
}
