// Package services contains pure domain services for the knowledge graph
package services

import (
	"math"
	"sort"
	"strings"
	"sync"

	"secondbrain-backend/pkg/errors"
)

// Embedding pairs a text with its feature vector
type Embedding struct {
	Vector []float64
	Text   string
	Model  string
}

// SimilarityMatch is one scored candidate from FindSimilar
type SimilarityMatch struct {
	Text       string
	Similarity float64
}

// EmbeddingService turns text into comparable feature vectors.
// The current model is a deterministic lexical featurization, not a learned
// semantic embedding; it is a stand-in until a real embedding provider is
// wired in, and callers should treat scores as lexical similarity only.
type EmbeddingService interface {
	// Embed returns the vector for a text, computing and caching it on first use
	Embed(text string) Embedding

	// CosineSimilarity scores two embeddings in [-1, 1]
	CosineSimilarity(a, b Embedding) (float64, error)

	// FindSimilar embeds the query and every candidate, keeps candidates at or
	// above threshold and returns at most topK, ordered by descending score
	FindSimilar(query string, candidates []string, topK int, threshold float64) ([]SimilarityMatch, error)

	// ClearCache drops all cached embeddings
	ClearCache()

	// CacheSize returns the number of cached embeddings
	CacheSize() int
}

// EmbeddingConfig holds tunables for the embedding service
type EmbeddingConfig struct {
	Dimension int
	Model     string
}

// DefaultEmbeddingConfig returns production defaults
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Dimension: 768,
		Model:     "simple-hash-v1",
	}
}

// DefaultEmbeddingService is the lexical implementation of EmbeddingService
type DefaultEmbeddingService struct {
	config EmbeddingConfig

	mu    sync.RWMutex
	cache map[string]Embedding
}

// NewEmbeddingService creates an embedding service with the given config
func NewEmbeddingService(config EmbeddingConfig) *DefaultEmbeddingService {
	if config.Dimension <= 2 {
		config.Dimension = DefaultEmbeddingConfig().Dimension
	}
	if config.Model == "" {
		config.Model = DefaultEmbeddingConfig().Model
	}
	return &DefaultEmbeddingService{
		config: config,
		cache:  make(map[string]Embedding),
	}
}

// Embed returns the vector for a text, computing and caching it on first use
func (s *DefaultEmbeddingService) Embed(text string) Embedding {
	s.mu.RLock()
	cached, ok := s.cache[text]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	embedding := Embedding{
		Vector: s.textToVector(text),
		Text:   text,
		Model:  s.config.Model,
	}

	s.mu.Lock()
	s.cache[text] = embedding
	s.mu.Unlock()

	return embedding
}

// CosineSimilarity scores two embeddings in [-1, 1]
func (s *DefaultEmbeddingService) CosineSimilarity(a, b Embedding) (float64, error) {
	if len(a.Vector) != len(b.Vector) {
		return 0, errors.NewDimensionMismatchError(len(a.Vector), len(b.Vector))
	}

	var dot, normA, normB float64
	for i := range a.Vector {
		dot += a.Vector[i] * b.Vector[i]
		normA += a.Vector[i] * a.Vector[i]
		normB += b.Vector[i] * b.Vector[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, nil
	}
	return dot / denom, nil
}

// FindSimilar embeds the query and candidates and returns the topK matches
// at or above threshold, sorted by descending similarity. Ties keep candidate
// order.
func (s *DefaultEmbeddingService) FindSimilar(query string, candidates []string, topK int, threshold float64) ([]SimilarityMatch, error) {
	queryEmbedding := s.Embed(query)

	results := make([]SimilarityMatch, 0, len(candidates))
	for _, candidate := range candidates {
		candidateEmbedding := s.Embed(candidate)
		similarity, err := s.CosineSimilarity(queryEmbedding, candidateEmbedding)
		if err != nil {
			return nil, err
		}
		if similarity >= threshold {
			results = append(results, SimilarityMatch{Text: candidate, Similarity: similarity})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ClearCache drops all cached embeddings
func (s *DefaultEmbeddingService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]Embedding)
	s.mu.Unlock()
}

// CacheSize returns the number of cached embeddings
func (s *DefaultEmbeddingService) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// textToVector builds the lexical feature vector: a character-frequency
// histogram folded into the vector by char code modulo dimension, with
// slot 0 overwritten by the word count and slot 1 by the average word
// length, then L2-normalized.
func (s *DefaultEmbeddingService) textToVector(text string) []float64 {
	normalized := strings.ToLower(strings.TrimSpace(text))
	vector := make([]float64, s.config.Dimension)

	for _, r := range normalized {
		vector[int(r)%s.config.Dimension]++
	}

	words := strings.Fields(normalized)
	vector[0] = float64(len(words))

	if len(words) > 0 {
		total := 0
		for _, w := range words {
			total += len(w)
		}
		vector[1] = float64(total) / float64(len(words))
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += v * v
	}
	if magnitude := math.Sqrt(sumSquares); magnitude > 0 {
		for i := range vector {
			vector[i] /= magnitude
		}
	}

	return vector
}
