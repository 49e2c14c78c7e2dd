package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultGeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiEmbedModel = "text-embedding-004"
)

// GoogleProvider implements Provider for Google Gemini.
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	model      string
	embedModel string
	client     *http.Client
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL sets the base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.baseURL = url
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.client = client
	}
}

// WithGoogleModels overrides the chat and embedding models. Empty values keep
// the defaults.
func WithGoogleModels(chat, embed string) GoogleOption {
	return func(p *GoogleProvider) {
		if chat != "" {
			p.model = chat
		}
		if embed != "" {
			p.embedModel = embed
		}
	}
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		model:      defaultGeminiModel,
		embedModel: defaultGeminiEmbedModel,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// geminiRequest is the request body for the Gemini generateContent API.
type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// geminiResponse is the response from the Gemini API.
type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	var system []string
	contents := make([]geminiContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
			continue
		case "assistant":
			// Gemini calls the assistant role "model".
			m.Role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  m.Role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	gemReq := geminiRequest{Contents: contents}
	if len(system) > 0 {
		gemReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: strings.Join(system, "\n\n")}},
		}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		config := &geminiGenerationConfig{}
		if req.MaxTokens > 0 {
			config.MaxOutputTokens = req.MaxTokens
		}
		if req.Temperature > 0 {
			temp := req.Temperature
			config.Temperature = &temp
		}
		gemReq.GenerationConfig = config
	}

	var gemResp geminiResponse
	if err := p.post(ctx, model, "generateContent", gemReq, &gemResp); err != nil {
		return CompletionResponse{}, err
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return CompletionResponse{}, fmt.Errorf("no content in response")
	}

	return CompletionResponse{
		Content:      gemResp.Candidates[0].Content.Parts[0].Text,
		Model:        model,
		InputTokens:  gemResp.UsageMetadata.PromptTokenCount,
		OutputTokens: gemResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (p *GoogleProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	embReq := geminiEmbedRequest{
		Model:   "models/" + p.embedModel,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var embResp geminiEmbedResponse
	if err := p.post(ctx, p.embedModel, "embedContent", embReq, &embResp); err != nil {
		return nil, err
	}
	if len(embResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}
	return embResp.Embedding.Values, nil
}

// post calls {baseURL}/models/{model}:{method} and decodes the JSON reply.
func (p *GoogleProvider) post(ctx context.Context, model, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:%s?key=%s", p.baseURL, model, method, p.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models?key=%s", p.baseURL, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
