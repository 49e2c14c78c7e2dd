package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func textResponse(text string) geminiResponse {
	return geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiContent{Parts: []geminiPart{{Text: text}}}},
		},
		UsageMetadata: geminiUsage{PromptTokenCount: 8, CandidatesTokenCount: 12},
	}
}

func TestGoogleProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing or wrong API key in query")
		}

		var req geminiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Contents) == 0 {
			t.Error("no contents in request")
		}

		json.NewEncoder(w).Encode(textResponse("Gemini response"))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Gemini response" {
		t.Errorf("content = %q, want %q", resp.Content, "Gemini response")
	}
	if resp.TotalTokens() != 20 {
		t.Errorf("TotalTokens() = %d, want 20", resp.TotalTokens())
	}
}

func TestGoogleProvider_Complete_SystemInstructionAndRoles(t *testing.T) {
	var received geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(textResponse("ok"))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a study assistant."},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
			{Role: "user", Content: "what is photosynthesis?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if len(received.Contents) != 3 {
		t.Fatalf("got %d contents, want 3 (system moves to systemInstruction)", len(received.Contents))
	}
	if received.Contents[1].Role != "model" {
		t.Errorf("assistant role mapped to %q, want %q", received.Contents[1].Role, "model")
	}
	if received.SystemInstruction == nil || received.SystemInstruction.Parts[0].Text != "You are a study assistant." {
		t.Errorf("systemInstruction = %+v, want the system message", received.SystemInstruction)
	}
}

func TestGoogleProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota"}}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}); err == nil {
		t.Fatal("Complete() should fail on non-200 status")
	}
}

func TestGoogleProvider_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	}); err == nil {
		t.Fatal("Complete() should fail when no candidates are returned")
	}
}

func TestGoogleProvider_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/custom-embed:embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req geminiEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "models/custom-embed" {
			t.Errorf("model = %q, want models/custom-embed", req.Model)
		}
		if req.Content.Parts[0].Text != "cell membrane" {
			t.Errorf("text = %q, want cell membrane", req.Content.Parts[0].Text)
		}
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key",
		WithGoogleBaseURL(server.URL),
		WithGoogleModels("", "custom-embed"),
	)

	vec, err := provider.Embed(context.Background(), "cell membrane")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || vec[2] != 0.3 {
		t.Errorf("Embed() = %v, want [0.1 0.2 0.3]", vec)
	}
}

func TestGoogleProvider_Embed_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding":{"values":[]}}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	if _, err := provider.Embed(context.Background(), "x"); err == nil {
		t.Fatal("Embed() should fail on an empty vector")
	}
}

func TestGoogleProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
