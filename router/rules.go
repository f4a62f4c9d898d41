package router

// Rule is one named predicate→result step of the Layer 1 chain.
// Evaluation order is a data artifact: rules run in slice order with
// first-match-wins semantics, and each fired rule records its name in
// the debug trace so ordering can be unit-tested per rule.
type Rule struct {
	Name string
	Eval func(norm string) *ClassificationResult
}

// Policy-assigned confidences. These are constants per classification
// path, not free-form probabilities.
const (
	confidenceCritical = 0.95
	confidenceStatus   = 0.90
	confidenceContent  = 0.85
	confidenceHelp     = 0.90
	confidenceChat     = 0.80
	confidenceUnknown  = 0.30
)

// RuleClassifier is Layer 1: deterministic, single input, no I/O, no
// randomness. Configuration is an immutable snapshot taken at
// construction; reloading builds a new classifier.
type RuleClassifier struct {
	cfg      Config
	matcher  *KeywordMatcher
	detector *AmbiguityDetector
	rules    []Rule
}

// NewRuleClassifier builds the ordered rule chain from the snapshot.
func NewRuleClassifier(cfg Config) *RuleClassifier {
	matcher := NewKeywordMatcher(cfg)
	c := &RuleClassifier{
		cfg:      cfg,
		matcher:  matcher,
		detector: NewAmbiguityDetector(cfg, matcher),
	}
	c.rules = c.buildRules()
	return c
}

// Classify runs the chain and always returns a complete result; an
// input matching nothing falls through to the unknown intent.
func (c *RuleClassifier) Classify(input string) ClassificationResult {
	norm := Normalize(input)
	for _, rule := range c.rules {
		if result := rule.Eval(norm); result != nil {
			return *result
		}
	}
	// Unreachable: the final rule always matches.
	result := newResult(IntentUnknown, SubIntentNone, confidenceUnknown)
	result.addTrace("no_match")
	return result
}

// Rules exposes the evaluation order for tests and diagnostics.
func (c *RuleClassifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

func (c *RuleClassifier) buildRules() []Rule {
	rules := []Rule{
		{Name: "boundary_ambiguity", Eval: c.evalAmbiguity},
		{Name: "critical_quiz", Eval: c.evalCriticalQuiz},
		{Name: "education_compound_priority", Eval: c.evalEducationCompound},
		{Name: "policy_clarifier_priority", Eval: c.evalPolicyClarifier},
		{Name: "hr_personal_status", Eval: c.evalHRPersonal},
		{Name: "education_status", Eval: c.evalEducationStatus},
		{Name: "education_content", Eval: c.evalEducationContent},
		{Name: "policy_general", Eval: c.evalPolicyGeneral},
	}
	if c.cfg.EnableIncidentIntents {
		rules = append(rules,
			Rule{Name: "incident_report", Eval: c.evalIncidentReport},
			Rule{Name: "incident_qa", Eval: c.evalIncidentQA},
		)
	}
	rules = append(rules, Rule{Name: "system_help", Eval: c.evalSystemHelp})
	if c.cfg.EnableSummaryIntent {
		rules = append(rules, Rule{Name: "summary_detection", Eval: c.evalSummary})
	}
	rules = append(rules,
		Rule{Name: "general_chat", Eval: c.evalGeneralChat},
		Rule{Name: "no_match", Eval: c.evalNoMatch},
	)
	return rules
}

// evalAmbiguity fires before any intent is finalized: an ambiguous
// input is never "confidently" misrouted.
func (c *RuleClassifier) evalAmbiguity(norm string) *ClassificationResult {
	hit := c.detector.Detect(norm)
	if hit == nil {
		return nil
	}
	result := ClassificationResult{
		Intent:                IntentUnknown,
		Domain:                DomainGeneral,
		Route:                 RouteFallback,
		NeedsClarification:    true,
		ClarificationQuestion: hit.Question,
		ClarificationGroup:    hit.Group,
	}
	result.addTrace("boundary_ambiguity", string(hit.Group))
	return &result
}

// confirmationPrompts are the canned yes/no checks per critical action.
var confirmationPrompts = map[SubIntent]string{
	SubIntentQuizStart:    "You are about to start the quiz. Once started it cannot be restarted. Proceed? (yes/no)",
	SubIntentQuizSubmit:   "You are about to submit your quiz answers. Submission is final. Proceed? (yes/no)",
	SubIntentQuizGenerate: "You are about to generate a new quiz, replacing the current one. Proceed? (yes/no)",
}

// evalCriticalQuiz checks the critical sub-intents in fixed order:
// start, submit, generate.
func (c *RuleClassifier) evalCriticalQuiz(norm string) *ClassificationResult {
	checks := []struct {
		cat Category
		sub SubIntent
	}{
		{CategoryQuizStart, SubIntentQuizStart},
		{CategoryQuizSubmit, SubIntentQuizSubmit},
		{CategoryQuizGenerate, SubIntentQuizGenerate},
	}
	for _, check := range checks {
		matched := c.matcher.Match(norm, check.cat)
		if len(matched) == 0 {
			continue
		}
		result := newResult(IntentBackendStatus, check.sub, confidenceCritical)
		result.RequiresConfirmation = true
		result.ConfirmationPrompt = confirmationPrompts[check.sub]
		result.addTrace("critical_"+string(check.sub), matched...)
		return &result
	}
	return nil
}

// evalEducationCompound: the word "education" plus an education-content
// keyword classifies as education content regardless of any policy
// keyword co-occurrence. Overrides keyword overlap where a policy-style
// word ("harassment", "information-protection") sits inside a compound
// education term.
func (c *RuleClassifier) evalEducationCompound(norm string) *ClassificationResult {
	if !ContainsWord(norm, "education") {
		return nil
	}
	matched := c.matcher.Match(norm, CategoryEducationContent)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentEducationQA, SubIntentNone, confidenceContent)
	result.addTrace("education_compound_priority", matched...)
	return &result
}

// evalPolicyClarifier: an explicit clarifier term plus a policy or
// ambiguous-leave keyword classifies as policy. Runs after the
// education compound rule so an education compound is never reclassified
// as policy merely because it contains a policy-style substring.
func (c *RuleClassifier) evalPolicyClarifier(norm string) *ClassificationResult {
	if !ContainsAnyTerm(norm, c.cfg.ClarifierTerms) {
		return nil
	}
	matched := c.matcher.Match(norm, CategoryPolicy)
	matched = append(matched, c.matcher.Match(norm, CategoryAmbiguousLeave)...)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentPolicyQA, SubIntentNone, confidenceContent)
	result.addTrace("policy_clarifier_priority", matched...)
	return &result
}

// evalHRPersonal: personal-status keywords route to the backend with
// domain HR. A more specific HR sub-keyword set refines the sub-intent.
func (c *RuleClassifier) evalHRPersonal(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryHRPersonal)
	if len(matched) == 0 {
		return nil
	}
	sub := SubIntentNone
	for _, refine := range []struct {
		cat Category
		sub SubIntent
	}{
		{CategoryHRLeave, SubIntentHRLeave},
		{CategoryHRAttendance, SubIntentHRAttendance},
		{CategoryHRWelfare, SubIntentHRWelfare},
	} {
		if c.matcher.MatchAny(norm, refine.cat) {
			sub = refine.sub
			break
		}
	}
	result := newResult(IntentBackendStatus, sub, confidenceStatus)
	result.Domain = DomainHR
	result.addTrace("hr_personal_status", matched...)
	return &result
}

func (c *RuleClassifier) evalEducationStatus(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryEducationStatus)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentBackendStatus, SubIntentEducationStatus, confidenceStatus)
	result.addTrace("education_status", matched...)
	return &result
}

func (c *RuleClassifier) evalEducationContent(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryEducationContent)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentEducationQA, SubIntentNone, confidenceContent)
	result.addTrace("education_content", matched...)
	return &result
}

func (c *RuleClassifier) evalPolicyGeneral(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryPolicy)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentPolicyQA, SubIntentNone, confidenceContent)
	result.addTrace("policy_general", matched...)
	return &result
}

func (c *RuleClassifier) evalIncidentReport(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryIncidentReport)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentBackendStatus, SubIntentIncidentReport, confidenceStatus)
	result.addTrace("incident_report", matched...)
	return &result
}

func (c *RuleClassifier) evalIncidentQA(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryIncidentQA)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentPolicyQA, SubIntentNone, confidenceContent)
	result.Domain = DomainIncident
	result.addTrace("incident_qa", matched...)
	return &result
}

func (c *RuleClassifier) evalSystemHelp(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategorySystemHelp)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentSystemHelp, SubIntentNone, confidenceHelp)
	result.addTrace("system_help", matched...)
	return &result
}

// evalSummary routes summarize requests to generation-only handling.
func (c *RuleClassifier) evalSummary(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategorySummary)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentGeneralChat, SubIntentNone, confidenceContent)
	result.addTrace("summary_detection", matched...)
	return &result
}

func (c *RuleClassifier) evalGeneralChat(norm string) *ClassificationResult {
	matched := c.matcher.Match(norm, CategoryGeneralChat)
	if len(matched) == 0 {
		return nil
	}
	result := newResult(IntentGeneralChat, SubIntentNone, confidenceChat)
	result.addTrace("general_chat", matched...)
	return &result
}

func (c *RuleClassifier) evalNoMatch(_ string) *ClassificationResult {
	result := newResult(IntentUnknown, SubIntentNone, confidenceUnknown)
	result.addTrace("no_match")
	return &result
}
