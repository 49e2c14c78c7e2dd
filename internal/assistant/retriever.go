package assistant

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// Chunk is one piece of study material with a precomputed embedding.
type Chunk struct {
	ID     string    `json:"id"`
	Topic  string    `json:"topic,omitempty"`
	Text   string    `json:"text"`
	Vector []float64 `json:"vector"`
}

// Match is a chunk scored against a query vector.
type Match struct {
	Chunk
	Score float64
}

// Retriever ranks chunks by cosine similarity to a query vector.
type Retriever struct {
	chunks []Chunk
}

// NewRetriever creates a retriever over chunks.
func NewRetriever(chunks []Chunk) *Retriever {
	return &Retriever{chunks: chunks}
}

// LoadRetriever reads a JSON array of chunks from path.
func LoadRetriever(path string) (*Retriever, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings file: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse embeddings file %s: %w", path, err)
	}
	return NewRetriever(chunks), nil
}

// Len returns the number of indexed chunks.
func (r *Retriever) Len() int {
	return len(r.chunks)
}

// TopK returns the k best matches for query, highest score first. Ties keep
// file order.
func (r *Retriever) TopK(query []float64, k int) []Match {
	if k <= 0 || len(r.chunks) == 0 {
		return nil
	}

	matches := make([]Match, len(r.chunks))
	for i, c := range r.chunks {
		matches[i] = Match{Chunk: c, Score: Cosine(query, c.Vector)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero norm score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
