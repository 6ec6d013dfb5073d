package runtime

import (
	"log/slog"
	"strings"

	"github.com/aretw0/majbot/internal/logging"
	"github.com/aretw0/majbot/pkg/domain"
	"github.com/aretw0/majbot/pkg/regex"
)

// NoScore marks a candidate that did not match.
const NoScore = -1

// Match is the winner of a matching pass.
// The captured text travels here instead of on the Keyword so rules stay immutable.
type Match struct {
	Keyword  domain.Keyword
	Captured string
	Score    int
	Index    int
}

// Matcher scores utterances against keyword rules.
type Matcher struct {
	Logger *slog.Logger
}

// Score evaluates a single rule against text and returns its score and captured text.
//
//   - "*" scores its points.
//   - Regex rules (Variable set) score their points when the pattern captures non-empty text.
//   - Token rules add points+1 per token found (case-insensitive substring) starting at -1,
//     and fail as soon as a token is missing.
//
// Pattern errors are logged and count as a miss.
func (m Matcher) Score(text string, k domain.Keyword) (int, string) {
	if k.Pattern == domain.Wildcard {
		return k.Points, ""
	}

	if k.Variable != "" {
		captured, err := regex.Match(k.Pattern, text)
		if err != nil {
			m.logger().Warn("pattern skipped", "pattern", k.Pattern, "variable", k.Variable, "err", err)
			return NoScore, ""
		}
		if captured == "" {
			return NoScore, ""
		}
		return k.Points, captured
	}

	lower := strings.ToLower(text)
	score := NoScore
	for _, word := range strings.Split(k.Pattern, " ") {
		if !strings.Contains(lower, strings.ToLower(word)) {
			return NoScore, ""
		}
		score += k.Points + 1
	}
	return score, ""
}

// Select returns the highest scoring candidate. Candidates are visited in declaration
// order and only a strictly greater score replaces the current best, so ties keep the
// earlier rule. Negative scores never win.
func (m Matcher) Select(text string, candidates []domain.Keyword) (Match, bool) {
	best := Match{Score: NoScore, Index: -1}
	for i, k := range candidates {
		score, captured := m.Score(text, k)
		if score > NoScore && score > best.Score {
			best = Match{Keyword: k, Captured: captured, Score: score, Index: i}
		}
	}
	return best, best.Index >= 0
}

func (m Matcher) logger() *slog.Logger {
	if m.Logger == nil {
		return logging.NewNop()
	}
	return m.Logger
}
