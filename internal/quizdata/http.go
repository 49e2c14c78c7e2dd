package quizdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const maxResponseBytes = 8 << 20

// quizSetSchema describes the GET payload: an ordered array of quiz items.
const quizSetSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "topic", "question", "options", "correctAnswer"],
    "properties": {
      "id":            {"type": "integer"},
      "topic":         {"type": "string", "minLength": 1},
      "title":         {"type": "string"},
      "question":      {"type": "string"},
      "options":       {"type": "array", "minItems": 2, "items": {"type": "string"}},
      "correctAnswer": {"type": "string"},
      "feedback":      {"type": "string"}
    }
  }
}`

var compiledQuizSetSchema = mustCompileSchema(quizSetSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compiling quiz set schema: %v", err))
	}
	return schema
}

// HTTPSource fetches the quiz set from a JSON endpoint.
type HTTPSource struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// NewHTTPSource creates a source that GETs url.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]QuizItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building quiz request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching quiz data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quiz data source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading quiz data: %w", err)
	}

	return DecodeJSON(body)
}

// DecodeJSON validates body against the quiz set schema and decodes it.
func DecodeJSON(body []byte) ([]QuizItem, error) {
	result, err := compiledQuizSetSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing quiz data: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(msgs, "; "))
	}

	var items []QuizItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding quiz data: %w", err)
	}
	return items, nil
}
