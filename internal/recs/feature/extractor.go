package feature

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/filmgraph/filmgraph-backend/internal/domain"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

// Caps on list-valued attributes, taken in input order. They bound the
// feature-vector width, not correctness.
const (
	maxCastTokens    = 3
	maxKeywordTokens = 10
)

// Extractor turns movie metadata into normalized categorical feature tokens
// of the form "<namespace>:<normalized-value>". Token sets are deterministic:
// the same metadata always yields the same tokens, independent of order.
type Extractor struct {
	log *logger.Logger
}

func NewExtractor(baseLog *logger.Logger) *Extractor {
	return &Extractor{log: baseLog.With("component", "FeatureExtractor")}
}

// Extract returns the movie's deduplicated feature tokens in sorted order.
// The set always contains the movie's identity token, so no movie ever has
// an empty feature row.
func (e *Extractor) Extract(m *domain.Movie) []string {
	seen := map[string]struct{}{}

	e.addListTokens(seen, m.Genres, "genre", 0, m.ID)
	e.addListTokens(seen, m.Directors, "director", 0, m.ID)
	e.addListTokens(seen, m.Cast, "actor", maxCastTokens, m.ID)
	e.addListTokens(seen, m.Keywords, "keyword", maxKeywordTokens, m.ID)

	if m.ReleaseDate != nil {
		decade := (m.ReleaseDate.Year() / 10) * 10
		seen[fmt.Sprintf("decade:%ds", decade)] = struct{}{}
	}

	if m.VoteAverage > 0 {
		bin := (int(m.VoteAverage) / 2) * 2
		seen[fmt.Sprintf("rating_bin:%d-%d", bin, bin+2)] = struct{}{}
	}

	// Identity token guarantees a non-empty feature row even for movies
	// with no metadata at all.
	seen[IdentityToken(m.ID)] = struct{}{}

	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

// IdentityToken is the per-movie unique token tying a feature set back to the
// movie's own identifier.
func IdentityToken(movieID int64) string {
	return fmt.Sprintf("movie_id_:%d", movieID)
}

// addListTokens parses a JSON list attribute and adds "<prefix>:<value>"
// tokens. Elements may be {"name": ...} objects or plain strings. A limit of
// 0 means uncapped; capping happens in input order. Malformed payloads
// degrade to no tokens for the attribute, never an error.
func (e *Extractor) addListTokens(seen map[string]struct{}, raw []byte, prefix string, limit int, movieID int64) {
	values := e.parseList(raw, prefix, movieID)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	for _, v := range values {
		seen[prefix+":"+v] = struct{}{}
	}
}

func (e *Extractor) parseList(raw []byte, attribute string, movieID int64) []string {
	if len(raw) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		e.log.Warn("Malformed JSON attribute, skipping",
			"attribute", attribute, "movie_id", movieID, "error", err)
		return nil
	}

	items, ok := parsed.([]any)
	if !ok {
		// A single object or string wraps into a one-element list.
		items = []any{parsed}
	}

	var out []string
	for _, item := range items {
		var val string
		switch v := item.(type) {
		case map[string]any:
			name, _ := v["name"].(string)
			val = name
		case string:
			val = v
		}
		val = normalize(val)
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}

func normalize(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.ReplaceAll(v, " ", "_")
}
