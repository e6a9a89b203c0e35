package matcher

import (
	"context"
	"fmt"
	"strings"

	"pincrawl/internal/config"
	"pincrawl/internal/logging"
	"pincrawl/pkg/models"
)

// Matcher resolves a noisy product guess to a canonical catalog entry by
// embedding the guess and querying the vector index. A nil result with a nil
// error means no catalog entry cleared the acceptance threshold.
type Matcher struct {
	embedder  Embedder
	index     VectorIndex
	threshold float32
	topK      int
	logger    logging.Logger
}

// New creates a Matcher from its collaborators and configuration
func New(cfg *config.Config, embedder Embedder, index VectorIndex) *Matcher {
	topK := cfg.Matcher.TopK
	if topK < 1 {
		topK = 1
	}

	return &Matcher{
		embedder:  embedder,
		index:     index,
		threshold: cfg.Matcher.Threshold,
		topK:      topK,
		logger:    logging.GetGlobalLogger(),
	}
}

// Match embeds the product guess and returns the best catalog candidate if
// its similarity clears the acceptance threshold.
func (m *Matcher) Match(ctx context.Context, guess *models.ProductGuess) (*models.Match, error) {
	searchText := EmbeddingText(guess.Name, "", guess.Manufacturer, yearString(guess.Year))

	m.logger.Debug("Searching vector index", map[string]interface{}{
		"search_text": searchText,
	})

	vector, err := m.embedder.Embed(ctx, searchText)
	if err != nil {
		return nil, err
	}

	matches, err := m.index.Query(ctx, vector, m.topK)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		m.logger.Debug("No candidates returned by vector index", map[string]interface{}{
			"search_text": searchText,
		})
		return nil, nil
	}

	best := matches[0]
	for _, candidate := range matches[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}

	// A score exactly at the threshold is accepted
	if best.Score < m.threshold {
		m.logger.Info("Best candidate below acceptance threshold", map[string]interface{}{
			"opdb_id":   best.OpdbID,
			"score":     best.Score,
			"threshold": m.threshold,
		})
		return nil, nil
	}

	return &best, nil
}

// Search embeds free text and returns the topK nearest catalog entries with
// their scores. Unlike Match it applies no acceptance threshold; it exists
// for ad-hoc catalog lookups.
func (m *Matcher) Search(ctx context.Context, text string, topK int) ([]models.Match, error) {
	vector, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return m.index.Query(ctx, vector, topK)
}

// EmbeddingText builds the text embedded for a product, both at index-build
// time and at query time. Both sides must agree on this shape.
func EmbeddingText(name, shortname, manufacturer, year string) string {
	var parts []string
	if name != "" {
		parts = append(parts, name)
	}
	if shortname != "" && shortname != name {
		parts = append(parts, shortname)
	}
	if manufacturer != "" {
		parts = append(parts, fmt.Sprintf("by %s", manufacturer))
	}
	if year != "" {
		parts = append(parts, fmt.Sprintf("from %s", year))
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

func yearString(year *int) string {
	if year == nil {
		return ""
	}
	return fmt.Sprintf("%d", *year)
}
