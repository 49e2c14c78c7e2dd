package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Router tries registered providers in registration order until one succeeds.
type Router struct {
	providers map[string]Provider
	fallback  []string // ordered fallback chain
	mu        sync.RWMutex
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the router.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; !exists {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Complete routes a completion to the first provider that answers.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.fallback {
		resp, err := r.providers[name].Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"error", err,
			)
			continue
		}

		slog.Debug("AI request completed",
			"provider", name,
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
			"total_tokens", resp.TotalTokens(),
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed")
}

// Embed routes an embedding request through the same fallback chain.
func (r *Router) Embed(ctx context.Context, text string) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.fallback {
		vec, err := r.providers[name].Embed(ctx, text)
		if err != nil {
			slog.Warn("AI embedding failed, trying next",
				"provider", name,
				"error", err,
			)
			continue
		}
		return vec, nil
	}

	return nil, fmt.Errorf("all AI providers failed to embed")
}

// HealthCheck succeeds as soon as one registered provider is healthy.
func (r *Router) HealthCheck(ctx context.Context) error {
	if !r.HasProvider() {
		return fmt.Errorf("no AI provider registered")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.fallback {
		err := r.providers[name].HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return fmt.Errorf("no healthy AI provider: %w", errors.Join(errs...))
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}
