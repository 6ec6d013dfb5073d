// Package regex holds the pattern primitives used by the matcher and the renderer.
package regex

import (
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single evaluation so a pathological pattern cannot stall a turn.
const MatchTimeout = 250 * time.Millisecond

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*regexp2.Regexp)

	placeholder = regexp2.MustCompile(`\[[A-Za-z_][A-Za-z0-9_]*\]`, regexp2.None)
)

// Compile returns the cached compiled form of pattern.
// Failures wrap domain.ErrMalformedPattern.
func Compile(pattern string) (*regexp2.Regexp, error) {
	cacheMu.RLock()
	re, ok := cache[pattern]
	cacheMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrMalformedPattern, pattern, err)
	}
	re.MatchTimeout = MatchTimeout

	cacheMu.Lock()
	cache[pattern] = re
	cacheMu.Unlock()
	return re, nil
}

// Match applies pattern to text and returns the first capturing group of the rightmost
// non-empty match, or the whole match when the pattern has no group. It returns an empty
// string when nothing matches.
//
// Answers usually close the sentence ("I am Alice"), so the rightmost match wins.
func Match(pattern, text string) (string, error) {
	re, err := Compile(pattern)
	if err != nil {
		return "", err
	}

	// Patterns that accept empty text also match at the end of input;
	// those zero-length matches only count when nothing longer matched.
	var last *regexp2.Match
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		if last == nil || m.Length > 0 {
			last = m
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return "", fmt.Errorf("match %q: %w", pattern, err)
	}
	if last == nil {
		return "", nil
	}

	if groups := last.Groups(); len(groups) > 1 {
		return groups[1].String(), nil
	}
	return last.String(), nil
}

// Clear removes every unresolved [name] placeholder from text.
func Clear(text string) string {
	out, err := placeholder.Replace(text, "", -1, -1)
	if err != nil {
		return text
	}
	return out
}
