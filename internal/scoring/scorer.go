// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package scoring

import (
	"fmt"
	"math"

	"github.com/rvense/efvcompass/internal/efv"
)

// Config contains the tunable scoring parameters. Weights are relative; they
// are normalized at construction and do not need to sum to 1.0.
type Config struct {
	// LexicalWeight is the weight of token-set overlap.
	LexicalWeight float64 `koanf:"lexical_weight" json:"lexical_weight"`

	// SemanticWeight is the weight of embedding cosine similarity.
	SemanticWeight float64 `koanf:"semantic_weight" json:"semantic_weight"`

	// RecencyWeight is the weight of the report-year decay signal.
	RecencyWeight float64 `koanf:"recency_weight" json:"recency_weight"`

	// RecencyHalfLifeYears halves the recency signal per this many years of
	// distance from the reference year.
	RecencyHalfLifeYears float64 `koanf:"recency_half_life_years" json:"recency_half_life_years"`
}

// DefaultConfig returns the default scoring parameters.
func DefaultConfig() Config {
	return Config{
		LexicalWeight:        0.35,
		SemanticWeight:       0.45,
		RecencyWeight:        0.20,
		RecencyHalfLifeYears: 3,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.LexicalWeight < 0 || c.SemanticWeight < 0 || c.RecencyWeight < 0 {
		return fmt.Errorf("scoring: weights must be non-negative")
	}
	if c.LexicalWeight+c.SemanticWeight+c.RecencyWeight == 0 {
		return fmt.Errorf("scoring: at least one weight must be positive")
	}
	if c.RecencyHalfLifeYears <= 0 {
		return fmt.Errorf("scoring: recency half-life must be positive, got %g", c.RecencyHalfLifeYears)
	}
	return nil
}

// EmbeddingProvider supplies precomputed embedding vectors by text. The
// second return value reports availability; absence is an expected state and
// degrades scoring rather than failing it.
type EmbeddingProvider interface {
	Vector(text string) ([]float64, bool)
}

// Candidate is an evidence sentence under scoring.
type Candidate struct {
	// Sentence is the verbatim source sentence carrying the EFV item.
	Sentence string

	// ReportYear is the publication year of the sentence's report.
	ReportYear int
}

// Query is the request-side context a candidate is scored against.
type Query struct {
	// Context is the target section text, empty when the company has no
	// report carrying the target section.
	Context string

	// ReferenceYear is the most recent allowed year for the request.
	ReferenceYear int
}

// Scorer computes relation scores. Stateless apart from its configuration
// and embedding source; safe for concurrent use if the provider is.
type Scorer struct {
	lexW     float64
	semW     float64
	recW     float64
	halfLife float64

	embeddings EmbeddingProvider
}

// NewScorer creates a scorer. The provider may be nil, in which case the
// semantic signal is always absent and its weight is redistributed.
func NewScorer(cfg Config, embeddings EmbeddingProvider) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	total := cfg.LexicalWeight + cfg.SemanticWeight + cfg.RecencyWeight
	return &Scorer{
		lexW:       cfg.LexicalWeight / total,
		semW:       cfg.SemanticWeight / total,
		recW:       cfg.RecencyWeight / total,
		halfLife:   cfg.RecencyHalfLifeYears,
		embeddings: embeddings,
	}, nil
}

// Score returns the relevance of the candidate against the query in [0, 1].
// Deterministic and pure: identical inputs always yield identical output.
func (s *Scorer) Score(c Candidate, q Query) float64 {
	var sum, weight float64

	if lex, ok := s.lexical(c.Sentence, q.Context); ok {
		sum += s.lexW * lex
		weight += s.lexW
	}
	if sem, ok := s.semantic(c.Sentence, q.Context); ok {
		sum += s.semW * sem
		weight += s.semW
	}
	if rec, ok := s.recency(c.ReportYear, q.ReferenceYear); ok {
		sum += s.recW * rec
		weight += s.recW
	}

	if weight == 0 {
		return 0
	}

	// Dividing by the available weight redistributes absent signals'
	// weight proportionally across the remaining ones.
	return clamp01(sum / weight)
}

// lexical is normalized token-set overlap (Jaccard over stemmed tokens).
func (s *Scorer) lexical(sentence, context string) (float64, bool) {
	if s.lexW == 0 || context == "" {
		return 0, false
	}

	a := tokenSet(sentence)
	b := tokenSet(context)
	if len(a) == 0 || len(b) == 0 {
		return 0, false
	}

	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union), true
}

// semantic is cosine similarity between the embedding vectors of the
// candidate sentence and the query context, clamped to [0, 1].
func (s *Scorer) semantic(sentence, context string) (float64, bool) {
	if s.semW == 0 || s.embeddings == nil || context == "" {
		return 0, false
	}

	va, ok := s.embeddings.Vector(sentence)
	if !ok {
		return 0, false
	}
	vb, ok := s.embeddings.Vector(context)
	if !ok {
		return 0, false
	}

	cos, ok := cosine(va, vb)
	if !ok {
		return 0, false
	}
	return clamp01(cos), true
}

// recency decays exponentially with year distance from the reference year.
// Years at or past the reference score 1.0.
func (s *Scorer) recency(reportYear, referenceYear int) (float64, bool) {
	if s.recW == 0 || reportYear <= 0 || referenceYear <= 0 {
		return 0, false
	}

	distance := float64(referenceYear - reportYear)
	if distance <= 0 {
		return 1, true
	}
	return math.Pow(0.5, distance/s.halfLife), true
}

// tokenSet builds the set of normalized tokens for Jaccard comparison.
func tokenSet(text string) map[string]struct{} {
	tokens := efv.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// cosine returns the cosine similarity of two vectors. The second return
// value is false for mismatched lengths or zero-norm vectors.
func cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
