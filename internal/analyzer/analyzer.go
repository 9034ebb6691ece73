// Package analyzer classifies notification text into a category with a
// confidence score. The reference implementation emulates an external AI API:
// variable latency, keyword-driven classification, sampled keywords.
package analyzer

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
)

// Result is the outcome of a successful text analysis.
type Result struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Keywords   []string        `json:"keywords"`
}

// Analyzer classifies notification text. Implementations may block for an
// arbitrary (but expected finite) time and must honor context cancellation.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Result, error)
}

var (
	criticalKeywords = []string{"error", "exception", "failed"}
	warningKeywords  = []string{"warning", "attention", "careful"}
)

// KeywordAnalyzer is the reference Analyzer: it sleeps for a random duration
// within a configured window, then classifies by keyword matching.
type KeywordAnalyzer struct {
	minLatency time.Duration
	maxLatency time.Duration

	// rng drives latency, confidence and keyword sampling. Guarded by mu
	// because multiple worker goroutines share one analyzer.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewKeywordAnalyzer creates a KeywordAnalyzer with a time-seeded randomness
// source. Latency is uniformly distributed in [minLatency, maxLatency].
func NewKeywordAnalyzer(minLatency, maxLatency time.Duration) *KeywordAnalyzer {
	return NewKeywordAnalyzerWithSource(minLatency, maxLatency, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewKeywordAnalyzerWithSource creates a KeywordAnalyzer with an injected
// randomness source, so tests can run deterministically without changing the
// classification rule.
func NewKeywordAnalyzerWithSource(minLatency, maxLatency time.Duration, rng *rand.Rand) *KeywordAnalyzer {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &KeywordAnalyzer{
		minLatency: minLatency,
		maxLatency: maxLatency,
		rng:        rng,
	}
}

// Analyze classifies the given text. It returns the context error if the
// caller cancels or times out while the simulated call is in flight.
func (a *KeywordAnalyzer) Analyze(ctx context.Context, text string) (*Result, error) {
	if err := a.sleep(ctx); err != nil {
		return nil, err
	}

	lowered := strings.ToLower(text)

	var category models.Category
	var confidence float64
	switch {
	case containsAny(lowered, criticalKeywords):
		category = models.CategoryCritical
		confidence = a.uniform(0.70, 0.95)
	case containsAny(lowered, warningKeywords):
		category = models.CategoryWarning
		confidence = a.uniform(0.60, 0.90)
	default:
		category = models.CategoryInfo
		confidence = a.uniform(0.80, 0.99)
	}

	return &Result{
		Category:   category,
		Confidence: confidence,
		Keywords:   a.sampleKeywords(text),
	}, nil
}

func (a *KeywordAnalyzer) sleep(ctx context.Context) error {
	a.mu.Lock()
	delay := a.minLatency
	if window := a.maxLatency - a.minLatency; window > 0 {
		delay += time.Duration(a.rng.Int63n(int64(window)))
	}
	a.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *KeywordAnalyzer) uniform(lo, hi float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return lo + a.rng.Float64()*(hi-lo)
}

// sampleKeywords picks up to three distinct tokens from the text.
func (a *KeywordAnalyzer) sampleKeywords(text string) []string {
	tokens := strings.Fields(text)
	count := 3
	if len(tokens) < count {
		count = len(tokens)
	}

	a.mu.Lock()
	indexes := a.rng.Perm(len(tokens))[:count]
	a.mu.Unlock()

	keywords := make([]string, 0, count)
	for _, i := range indexes {
		keywords = append(keywords, tokens[i])
	}
	return keywords
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
