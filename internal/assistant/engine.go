// Package assistant answers study questions with retrieval-augmented
// generation over a precomputed embedding table.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/ai"
)

const (
	defaultTopK      = 3
	defaultMaxTokens = 512
)

// ErrEmptyQuestion is returned by Ask for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Model is the part of the AI router the assistant needs.
type Model interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
	Embed(ctx context.Context, text string) ([]float64, error)
	HealthCheck(ctx context.Context) error
}

// EngineConfig holds dependencies for the assistant engine.
type EngineConfig struct {
	Model     Model
	Retriever *Retriever // optional; without it questions are answered without context
	TopK      int        // chunks added to the prompt (default 3)
	MaxTokens int        // default 512
}

// Engine answers questions about the quiz material.
type Engine struct {
	model     Model
	retriever *Retriever
	topK      int
	maxTokens int
}

// Reply is the answer to a question with the ids of the chunks it used.
type Reply struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Model   string   `json:"model,omitempty"`
}

// NewEngine creates a new assistant engine.
func NewEngine(cfg EngineConfig) *Engine {
	topK := cfg.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &Engine{
		model:     cfg.Model,
		retriever: cfg.Retriever,
		topK:      topK,
		maxTokens: maxTokens,
	}
}

// Ask answers question. A failed embedding degrades to an answer without
// retrieved context; a failed completion is an error.
func (e *Engine) Ask(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}

	matches := e.retrieve(ctx, question)

	resp, err := e.model.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: buildSystemPrompt(matches)},
			{Role: "user", Content: question},
		},
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("complete answer: %w", err)
	}

	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, m.ID)
	}

	slog.Info("study question answered",
		"question_len", len(question),
		"sources", len(sources),
		"model", resp.Model,
		"tokens", resp.TotalTokens(),
	)
	return Reply{Answer: resp.Content, Sources: sources, Model: resp.Model}, nil
}

// HealthCheck reports whether the model behind the engine is reachable.
func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.model.HealthCheck(ctx)
}

func (e *Engine) retrieve(ctx context.Context, question string) []Match {
	if e.retriever == nil || e.retriever.Len() == 0 {
		return nil
	}
	vec, err := e.model.Embed(ctx, question)
	if err != nil {
		slog.Warn("question embedding failed, answering without context", "error", err)
		return nil
	}

	var matches []Match
	for _, m := range e.retriever.TopK(vec, e.topK) {
		if m.Score > 0 {
			matches = append(matches, m)
		}
	}
	return matches
}

func buildSystemPrompt(matches []Match) string {
	var b strings.Builder
	b.WriteString(`You are a patient study assistant for a multiple-choice quiz app.
Explain concepts step by step and keep answers short.
Do not reveal which quiz option is correct; help the student reason it out.`)

	if len(matches) > 0 {
		b.WriteString("\n\nUse this study material when it is relevant:\n")
		for _, m := range matches {
			if m.Topic != "" {
				fmt.Fprintf(&b, "\n[%s] %s\n", m.Topic, m.Text)
			} else {
				fmt.Fprintf(&b, "\n%s\n", m.Text)
			}
		}
	}
	return b.String()
}
