package router

import (
	"strings"
	"unicode"
)

// KeywordMatcher evaluates the configured vocabularies against
// normalized text. Matching is exact-phrase containment; no stemming.
type KeywordMatcher struct {
	cfg Config
}

// NewKeywordMatcher creates a matcher over an immutable config snapshot.
func NewKeywordMatcher(cfg Config) *KeywordMatcher {
	return &KeywordMatcher{cfg: cfg}
}

// Normalize lower-cases and whitespace-trims input once, so every
// predicate downstream can assume normalized text.
func Normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// Match returns the phrases of the category contained in the normalized
// text, in vocabulary order.
func (m *KeywordMatcher) Match(norm string, cat Category) []string {
	var matched []string
	for _, phrase := range m.cfg.Keywords[cat] {
		if strings.Contains(norm, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// MatchAny reports whether any phrase of the category is present.
func (m *KeywordMatcher) MatchAny(norm string, cat Category) bool {
	for _, phrase := range m.cfg.Keywords[cat] {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	return false
}

// ContainsAnyTerm reports whether any of the given terms is contained
// in the normalized text.
func ContainsAnyTerm(norm string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(norm, t) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether the normalized text contains the word as
// a standalone token, not merely as a substring of a longer word.
func ContainsWord(norm, word string) bool {
	idx := 0
	for {
		i := strings.Index(norm[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordRune(rune(norm[start-1]))
		afterOK := end == len(norm) || !isWordRune(rune(norm[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ShortAnswerLookup finds the first vocabulary word contained in a
// short free-text answer. Answers longer than the configured cap are
// never inspected: a long message is a new question, not a reply to a
// clarification.
func (m *KeywordMatcher) ShortAnswerLookup(answer string, vocab []string) (string, bool) {
	norm := Normalize(answer)
	if len(norm) > m.cfg.AnswerMaxChars {
		return "", false
	}
	for _, word := range vocab {
		if strings.Contains(norm, word) {
			return word, true
		}
	}
	return "", false
}

// WithinAnswerCap reports whether the message is short enough to be
// interpreted as a pending-interaction answer.
func (m *KeywordMatcher) WithinAnswerCap(input string) bool {
	return len(Normalize(input)) <= m.cfg.AnswerMaxChars
}
