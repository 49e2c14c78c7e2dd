package quizdata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quizdata"
)

func sampleItems() []quizdata.QuizItem {
	return []quizdata.QuizItem{
		{ID: 1, Topic: "Math", Title: "Addition", Question: "2+2?", Options: []string{"3", "4", "5", "22"}, CorrectAnswer: "4"},
		{ID: 2, Topic: "Science", Title: "Planets", Question: "Red planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectAnswer: "Mars"},
		{ID: 3, Topic: "math", Title: "Zero", Question: "0*7?", Options: []string{"0", "7"}, CorrectAnswer: "0"},
	}
}

func TestValidate_SampleItems(t *testing.T) {
	for _, item := range sampleItems() {
		if !item.HasOption(item.CorrectAnswer) {
			t.Errorf("item %d: correct answer %q not among options", item.ID, item.CorrectAnswer)
		}
	}
	if err := quizdata.Validate(sampleItems()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name  string
		items []quizdata.QuizItem
	}{
		{"correct-not-option", []quizdata.QuizItem{{ID: 1, Topic: "T", Options: []string{"a", "b"}, CorrectAnswer: "c"}}},
		{"one-option", []quizdata.QuizItem{{ID: 1, Topic: "T", Options: []string{"a"}, CorrectAnswer: "a"}}},
		{"no-topic", []quizdata.QuizItem{{ID: 1, Options: []string{"a", "b"}, CorrectAnswer: "a"}}},
		{"duplicate-id", []quizdata.QuizItem{
			{ID: 1, Topic: "T", Options: []string{"a", "b"}, CorrectAnswer: "a"},
			{ID: 1, Topic: "T", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := quizdata.Validate(tt.items)
			if !errors.Is(err, quizdata.ErrInvalidItem) {
				t.Errorf("Validate() error = %v, want ErrInvalidItem", err)
			}
		})
	}
}

func TestTopics_DistinctAndCollated(t *testing.T) {
	items := append(sampleItems(), quizdata.QuizItem{ID: 4, Topic: "Science"}, quizdata.QuizItem{ID: 5, Topic: "art"})

	got := quizdata.Topics(items)
	want := []string{"art", "Math", "math", "Science"}
	if len(got) != len(want) {
		t.Fatalf("Topics() = %v, want %v", got, want)
	}
	// Case-insensitive collation keeps "art" before "Math" and "Science" last.
	if got[0] != "art" || got[len(got)-1] != "Science" {
		t.Errorf("Topics() = %v, want art first and Science last", got)
	}
}

func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := quizdata.NewStaticSource(sampleItems())

	first, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	first[0].Title = "mutated"

	second, _ := src.Fetch(context.Background())
	if second[0].Title != "Addition" {
		t.Errorf("Fetch() should return an independent copy, got title %q", second[0].Title)
	}
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 2, "topic": "Science", "title": "Planets", "question": "Red planet?",
			 "options": ["Venus", "Mars", "Jupiter", "Saturn"], "correctAnswer": "Mars",
			 "feedback": "Iron oxide makes Mars red."}
		]`))
	}))
	defer srv.Close()

	items, err := quizdata.NewHTTPSource(srv.URL, quizdata.WithHTTPClient(srv.Client())).Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].CorrectAnswer != "Mars" || items[0].Feedback == "" {
		t.Errorf("item = %+v, want decoded correctAnswer and feedback", items[0])
	}
}

func TestHTTPSource_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"non-200", http.StatusBadGateway, ``},
		{"not-json", http.StatusOK, `not-json`},
		{"schema-violation", http.StatusOK, `[{"id": "one", "topic": "T", "question": "q", "options": ["a","b"], "correctAnswer": "a"}]`},
		{"too-few-options", http.StatusOK, `[{"id": 1, "topic": "T", "question": "q", "options": ["a"], "correctAnswer": "a"}]`},
		{"object-not-array", http.StatusOK, `{"items": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			if _, err := quizdata.NewHTTPSource(srv.URL).Fetch(t.Context()); err == nil {
				t.Error("Fetch() should return an error")
			}
		})
	}
}

func TestDirSource_Fetch(t *testing.T) {
	dir := t.TempDir()
	scienceDir := filepath.Join(dir, "science")
	os.MkdirAll(scienceDir, 0o755)

	os.WriteFile(filepath.Join(dir, "01-math.yaml"), []byte(`
topic: Math
questions:
  - id: 1
    title: Addition
    question: "2+2?"
    options: ["3", "4"]
    correct_answer: "4"
    feedback: "Two pairs."
`), 0o644)
	os.WriteFile(filepath.Join(scienceDir, "planets.yaml"), []byte(`
topic: Science
questions:
  - id: 2
    question: "Red planet?"
    options: [Venus, Mars, Jupiter, Saturn]
    correct_answer: Mars
  - id: 3
    topic: Astronomy
    question: "Closest star?"
    options: [Sun, Sirius]
    correct_answer: Sun
`), 0o644)
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("questions: [unterminated"), 0o644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# not a quiz"), 0o644)

	items, err := quizdata.NewDirSource(dir).Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	if !slices.Equal(ids, []int{1, 2, 3}) {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}
	if items[1].Topic != "Science" {
		t.Errorf("item 2 topic = %q, want inherited Science", items[1].Topic)
	}
	if items[2].Topic != "Astronomy" {
		t.Errorf("item 3 topic = %q, want own topic Astronomy", items[2].Topic)
	}
	if err := quizdata.Validate(items); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDirSource_MissingDir(t *testing.T) {
	_, err := quizdata.NewDirSource(filepath.Join(t.TempDir(), "nope")).Fetch(t.Context())
	if err == nil {
		t.Fatal("Fetch() should fail for a missing directory")
	}
}
