package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// StructuredGenerator is the external text-generation boundary: one
// structured request, one schema-conformant payload or a typed error.
// Implementations must honor context cancellation and deadlines.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema string) ([]byte, error)
}

// FewShotExample is one exemplar included in the fallback prompt.
type FewShotExample struct {
	Input     string    `yaml:"input"`
	Intent    Intent    `yaml:"intent"`
	SubIntent SubIntent `yaml:"sub_intent,omitempty"`
}

// DefaultFewShotExamples anchor the fallback prompt when no deployment
// examples are configured.
func DefaultFewShotExamples() []FewShotExample {
	return []FewShotExample{
		{Input: "what is the annual leave carry-over rule", Intent: IntentPolicyQA},
		{Input: "how many vacation days do I have left", Intent: IntentBackendStatus, SubIntent: SubIntentHRLeave},
		{Input: "what does the harassment prevention course cover", Intent: IntentEducationQA},
		{Input: "did I finish the security training", Intent: IntentBackendStatus, SubIntent: SubIntentEducationStatus},
		{Input: "how does this assistant work", Intent: IntentSystemHelp},
		{Input: "good morning!", Intent: IntentGeneralChat},
	}
}

// classificationSchema is the JSON schema sent with every fallback
// request. The reply must conform; anything else is rejected.
const classificationSchema = `{
  "type": "object",
  "properties": {
    "intent": {"type": "string"},
    "sub_intent": {"type": "string"},
    "domain": {"type": "string"},
    "confidence": {"type": "number"},
    "requires_confirmation": {"type": "boolean"}
  },
  "required": ["intent", "confidence"]
}`

// fallbackPayload is the structured reply shape.
type fallbackPayload struct {
	Intent               string  `json:"intent"`
	SubIntent            string  `json:"sub_intent"`
	Domain               string  `json:"domain"`
	Confidence           float64 `json:"confidence"`
	RequiresConfirmation bool    `json:"requires_confirmation"`
}

// FallbackClassifier is Layer 2: invoked only when Layer 1 confidence
// is below the threshold. It is a precision optimization, never a
// correctness requirement: any failure surfaces as
// ErrClassificationUnavailable and the caller keeps the Layer 1 result.
type FallbackClassifier struct {
	gen     StructuredGenerator
	cfg     Config
	limiter *rate.Limiter
	group   singleflight.Group
}

// NewFallbackClassifier creates the Layer 2 classifier. The limiter
// guards the external service from classification bursts; concurrent
// identical inputs are collapsed into one call.
func NewFallbackClassifier(gen StructuredGenerator, cfg Config) *FallbackClassifier {
	return &FallbackClassifier{
		gen:     gen,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// Classify formats the message and exemplars into one structured
// request and validates the reply into the shared result shape.
func (f *FallbackClassifier) Classify(ctx context.Context, input string, examples []FewShotExample) (ClassificationResult, error) {
	if f.gen == nil {
		return ClassificationResult{}, errors.Wrap(ErrClassificationUnavailable, "no generator configured")
	}
	if !f.limiter.Allow() {
		return ClassificationResult{}, errors.Wrap(ErrClassificationUnavailable, "rate limited")
	}

	timeout := f.cfg.FallbackTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := f.buildPrompt(input, examples)

	raw, err, _ := f.group.Do(input, func() (any, error) {
		return f.gen.GenerateStructured(ctx, prompt, classificationSchema)
	})
	if err != nil {
		return ClassificationResult{}, errors.Wrapf(ErrClassificationUnavailable, "generate: %v", err)
	}

	payload, err := parsePayload(raw.([]byte))
	if err != nil {
		return ClassificationResult{}, errors.Wrapf(ErrClassificationUnavailable, "parse: %v", err)
	}
	return f.validate(payload)
}

// buildPrompt assembles the single structured request: enum contract,
// exemplars, then the message.
func (f *FallbackClassifier) buildPrompt(input string, examples []FewShotExample) string {
	var b strings.Builder
	b.WriteString("You are a strict intent classifier for an enterprise assistant.\n")
	b.WriteString("Return JSON only, matching the given schema.\n")
	b.WriteString("intent must be one of: ")
	for i, intent := range Intents() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(intent))
	}
	b.WriteString(".\nsub_intent, when present, must be one of: ")
	b.WriteString("quiz_start, quiz_submit, quiz_generate, education_status, hr_leave, hr_attendance, hr_welfare, incident_report")
	b.WriteString(".\nconfidence must be between 0 and 1.\n\nExamples:\n")
	for _, ex := range examples {
		fmt.Fprintf(&b, "- %q -> {\"intent\": %q", ex.Input, ex.Intent)
		if ex.SubIntent != SubIntentNone {
			fmt.Fprintf(&b, ", \"sub_intent\": %q", ex.SubIntent)
		}
		b.WriteString("}\n")
	}
	b.WriteString("\nClassify this message:\n")
	b.WriteString(input)
	return b.String()
}

// parsePayload extracts and decodes the first JSON object in the reply.
func parsePayload(raw []byte) (fallbackPayload, error) {
	var payload fallbackPayload
	obj := extractFirstJSON(string(raw))
	if obj == "" {
		return payload, errors.New("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// extractFirstJSON returns the first balanced JSON object in text.
func extractFirstJSON(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

// validate maps the payload into the closed enums. Unknown values are
// rejected, not coerced; a confirmation claim for a non-critical
// sub-intent is discarded because the critical-action list, not the
// model, owns confirmation policy.
func (f *FallbackClassifier) validate(payload fallbackPayload) (ClassificationResult, error) {
	intent, err := NormalizeIntent(strings.TrimSpace(payload.Intent))
	if err != nil {
		return ClassificationResult{}, errors.Wrapf(ErrClassificationUnavailable, "%v", err)
	}
	sub, err := NormalizeSubIntent(strings.TrimSpace(payload.SubIntent))
	if err != nil {
		return ClassificationResult{}, errors.Wrapf(ErrClassificationUnavailable, "%v", err)
	}

	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	result := newResult(intent, sub, confidence)
	result.Confidence = confidence

	// Domain is optional in the reply; when present it must be valid.
	if d := strings.TrimSpace(payload.Domain); d != "" {
		domain, err := NormalizeDomain(d)
		if err != nil {
			return ClassificationResult{}, errors.Wrapf(ErrClassificationUnavailable, "%v", err)
		}
		result.Domain = domain
	}

	if payload.RequiresConfirmation {
		if sub.IsCritical() {
			result.RequiresConfirmation = true
			result.ConfirmationPrompt = confirmationPrompts[sub]
		} else {
			slog.Debug("fallback confirmation claim discarded for non-critical sub-intent",
				"sub_intent", sub)
		}
	}

	result.addTrace("llm_fallback", string(intent))
	return result, nil
}
