package router

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

// mockGenerator is a scripted StructuredGenerator.
type mockGenerator struct {
	reply []byte
	err   error
	calls int
}

func (m *mockGenerator) GenerateStructured(_ context.Context, _ string, _ string) ([]byte, error) {
	m.calls++
	return m.reply, m.err
}

func newFallback(gen StructuredGenerator) *FallbackClassifier {
	return NewFallbackClassifier(gen, DefaultConfig())
}

func TestFallbackClassifier_ValidPayload(t *testing.T) {
	gen := &mockGenerator{reply: []byte(`{"intent": "policy_qa", "confidence": 0.7}`)}
	f := newFallback(gen)

	result, err := f.Classify(context.Background(), "some vague question", DefaultFewShotExamples())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Intent != IntentPolicyQA {
		t.Errorf("intent: expected policy_qa, got %q", result.Intent)
	}
	if result.Domain != DomainPolicy || result.Route != RouteRetrieval {
		t.Errorf("routing: got domain %q route %q", result.Domain, result.Route)
	}
	if result.Confidence != 0.7 {
		t.Errorf("confidence: expected 0.7, got %v", result.Confidence)
	}
	if len(result.Trace) == 0 || result.Trace[0].Rule != "llm_fallback" {
		t.Errorf("trace: expected llm_fallback, got %v", result.Trace)
	}
}

func TestFallbackClassifier_LegacyAliasResolves(t *testing.T) {
	gen := &mockGenerator{reply: []byte(`{"intent": "regulation_qa", "confidence": 0.8}`)}
	f := newFallback(gen)

	result, err := f.Classify(context.Background(), "aliased", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Intent != IntentPolicyQA {
		t.Errorf("alias should resolve to policy_qa, got %q", result.Intent)
	}
}

func TestFallbackClassifier_RejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"unknown intent", `{"intent": "buy_stocks", "confidence": 0.9}`},
		{"unknown sub-intent", `{"intent": "backend_status", "sub_intent": "quiz_cheat", "confidence": 0.9}`},
		{"unknown domain", `{"intent": "policy_qa", "domain": "finance", "confidence": 0.9}`},
		{"no JSON at all", `the message is about policies`},
		{"malformed JSON", `{"intent": "policy_qa", "confidence": }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFallback(&mockGenerator{reply: []byte(tt.reply)})
			_, err := f.Classify(context.Background(), "input", nil)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !errors.Is(err, ErrClassificationUnavailable) {
				t.Errorf("expected ErrClassificationUnavailable, got %v", err)
			}
		})
	}
}

func TestFallbackClassifier_ExtractsEmbeddedJSON(t *testing.T) {
	reply := "Here is the classification:\n```json\n{\"intent\": \"general_chat\", \"confidence\": 0.6}\n```\nDone."
	f := newFallback(&mockGenerator{reply: []byte(reply)})

	result, err := f.Classify(context.Background(), "chatty", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Intent != IntentGeneralChat {
		t.Errorf("intent: expected general_chat, got %q", result.Intent)
	}
}

func TestFallbackClassifier_ConfidenceClamped(t *testing.T) {
	tests := []struct {
		reply    string
		expected float64
	}{
		{`{"intent": "policy_qa", "confidence": 1.7}`, 1},
		{`{"intent": "policy_qa", "confidence": -0.2}`, 0},
	}
	for _, tt := range tests {
		f := newFallback(&mockGenerator{reply: []byte(tt.reply)})
		result, err := f.Classify(context.Background(), "input", nil)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if result.Confidence != tt.expected {
			t.Errorf("confidence: expected %v, got %v", tt.expected, result.Confidence)
		}
	}
}

// TestFallbackClassifier_ConfirmationPolicy verifies the critical-action
// list, not the model, owns confirmation policy.
func TestFallbackClassifier_ConfirmationPolicy(t *testing.T) {
	// Confirmation claim on a non-critical sub-intent is discarded.
	f := newFallback(&mockGenerator{reply: []byte(
		`{"intent": "backend_status", "sub_intent": "hr_leave", "confidence": 0.9, "requires_confirmation": true}`)})
	result, err := f.Classify(context.Background(), "leave", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.RequiresConfirmation {
		t.Error("confirmation claim on non-critical sub-intent must be discarded")
	}

	// The same claim on a critical sub-intent is honored.
	f = newFallback(&mockGenerator{reply: []byte(
		`{"intent": "backend_status", "sub_intent": "quiz_submit", "confidence": 0.9, "requires_confirmation": true}`)})
	result, err = f.Classify(context.Background(), "submit", nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.RequiresConfirmation {
		t.Error("confirmation on critical sub-intent must be honored")
	}
	if result.ConfirmationPrompt == "" {
		t.Error("missing confirmation prompt")
	}
}

func TestFallbackClassifier_GeneratorFailure(t *testing.T) {
	f := newFallback(&mockGenerator{err: errors.New("upstream down")})
	_, err := f.Classify(context.Background(), "input", nil)
	if !errors.Is(err, ErrClassificationUnavailable) {
		t.Errorf("expected ErrClassificationUnavailable, got %v", err)
	}
}

func TestFallbackClassifier_NoGenerator(t *testing.T) {
	f := newFallback(nil)
	_, err := f.Classify(context.Background(), "input", nil)
	if !errors.Is(err, ErrClassificationUnavailable) {
		t.Errorf("expected ErrClassificationUnavailable, got %v", err)
	}
}

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{`prefix {"a": {"b": 2}} suffix`, `{"a": {"b": 2}}`},
		{`no braces`, ""},
		{`{"unbalanced": `, ""},
	}
	for _, tt := range tests {
		if got := extractFirstJSON(tt.text); got != tt.expected {
			t.Errorf("extractFirstJSON(%q): expected %q, got %q", tt.text, tt.expected, got)
		}
	}
}
