package router

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello World  ", "hello world"},
		{"START THE QUIZ", "start the quiz"},
		{"", ""},
		{"\t\n mixed \n", "mixed"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestKeywordMatcher_Match(t *testing.T) {
	m := NewKeywordMatcher(DefaultConfig())

	// Match returns contained phrases in vocabulary order.
	matched := m.Match("what is the leave policy and the carry-over rule", CategoryPolicy)
	expected := []string{"policy", "rule", "leave policy", "carry-over"}
	if !reflect.DeepEqual(matched, expected) {
		t.Errorf("Match: expected %v, got %v", expected, matched)
	}

	if m.MatchAny("nothing relevant here", CategoryPolicy) {
		t.Error("MatchAny: false positive")
	}
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		norm     string
		word     string
		expected bool
	}{
		{"harassment prevention education covers this", "education", true},
		{"education", "education", true},
		{"my reeducation camp", "education", false},
		{"educations are plural", "education", false},
		{"education-first approach", "education", true},
		{"no match here", "education", false},
	}
	for _, tt := range tests {
		if got := ContainsWord(tt.norm, tt.word); got != tt.expected {
			t.Errorf("ContainsWord(%q, %q): expected %v, got %v", tt.norm, tt.word, tt.expected, got)
		}
	}
}

func TestShortAnswerLookup(t *testing.T) {
	cfg := DefaultConfig()
	m := NewKeywordMatcher(cfg)
	vocab := cfg.ClarifyAnswers[GroupEducation].RetrievalWords

	if word, ok := m.ShortAnswerLookup("the content please", vocab); !ok || word != "content" {
		t.Errorf("expected content match, got (%q, %v)", word, ok)
	}
	if _, ok := m.ShortAnswerLookup("neither side", vocab); ok {
		t.Error("expected no match")
	}

	// Messages over the cap are never interpreted as answers.
	long := "the content please but actually this is a whole new question about something else"
	if _, ok := m.ShortAnswerLookup(long, vocab); ok {
		t.Error("over-cap message must not resolve as an answer")
	}
}

func TestWithinAnswerCap(t *testing.T) {
	m := NewKeywordMatcher(DefaultConfig())
	if !m.WithinAnswerCap("yes") {
		t.Error("short answer should be within cap")
	}
	if m.WithinAnswerCap("this message is deliberately much longer than forty characters in total") {
		t.Error("long message should exceed cap")
	}
}
