package router

// ClarifyGroup identifies which ambiguity boundary fired.
type ClarifyGroup string

const (
	// GroupEducation covers the education-content vs education-status
	// boundary ("tell me about education" could be either).
	GroupEducation ClarifyGroup = "EDU"

	// GroupLeave covers the leave-policy vs personal-leave-status
	// boundary ("check my leave" vs "check the leave rules").
	GroupLeave ClarifyGroup = "LEAVE"
)

// boundary describes one ambiguity boundary between two intents.
type boundary struct {
	Group    ClarifyGroup
	Question string

	// disambiguating resolves the boundary outright when matched
	// (explicit content/policy phrasing).
	disambiguating Category

	// personal resolves toward the status side when matched.
	personal Category

	// topics are the coarse topic words that, combined with a generic
	// request verb, mark the input as genuinely ambiguous.
	topics []string
}

// AmbiguityDetector decides whether input sits on one of the known
// boundaries where keyword matching alone would force a premature
// decision.
type AmbiguityDetector struct {
	cfg        Config
	matcher    *KeywordMatcher
	boundaries []boundary
}

// BoundaryHit reports a fired boundary with its canned question.
type BoundaryHit struct {
	Group    ClarifyGroup
	Question string
}

// NewAmbiguityDetector builds the detector over the config snapshot.
func NewAmbiguityDetector(cfg Config, matcher *KeywordMatcher) *AmbiguityDetector {
	return &AmbiguityDetector{
		cfg:     cfg,
		matcher: matcher,
		boundaries: []boundary{
			{
				Group:          GroupEducation,
				Question:       "Are you asking about education content, or checking your own education status?",
				disambiguating: CategoryEducationContent,
				personal:       CategoryEducationStatus,
				topics:         []string{"education", "training"},
			},
			{
				Group:          GroupLeave,
				Question:       "Are you asking about the leave policy, or checking your own leave balance?",
				disambiguating: CategoryPolicy,
				personal:       CategoryHRPersonal,
				topics:         cfg.Keywords[CategoryAmbiguousLeave],
			},
		},
	}
}

// Detect checks both boundaries in order and returns the first one the
// input is genuinely ambiguous on, or nil.
func (d *AmbiguityDetector) Detect(norm string) *BoundaryHit {
	for _, b := range d.boundaries {
		if d.isAmbiguous(norm, b) {
			return &BoundaryHit{Group: b.Group, Question: b.Question}
		}
	}
	return nil
}

// isAmbiguous evaluates the ordered exclusions for one boundary. The
// first true exclusion short-circuits to "not ambiguous": cheap,
// unambiguous signals always win over the coarse topic+verb heuristic.
func (d *AmbiguityDetector) isAmbiguous(norm string, b boundary) bool {
	// 1. Explicit domain phrasing decides the boundary outright.
	if d.matcher.MatchAny(norm, b.disambiguating) {
		return false
	}

	// 2. Personal-status phrasing decides toward the status side.
	if d.matcher.MatchAny(norm, b.personal) {
		return false
	}

	// 3. An explicit clarifier term ("regulation", "policy", ...)
	// always resolves toward the content/policy side. This exclusion
	// keeps clarification from over-triggering on queries that already
	// contain a disambiguating word.
	if ContainsAnyTerm(norm, d.cfg.ClarifierTerms) {
		return false
	}

	// 4. Ambiguous only when a topic word AND a generic request verb
	// co-occur. Either alone is not enough.
	if !ContainsAnyTerm(norm, b.topics) {
		return false
	}
	return ContainsAnyTerm(norm, d.cfg.AmbiguousVerbs)
}

// answerVocabulary returns the clarify-answer vocabulary for a group.
func (d *AmbiguityDetector) answerVocabulary(group ClarifyGroup) (ClarifyVocabulary, bool) {
	vocab, ok := d.cfg.ClarifyAnswers[group]
	return vocab, ok
}
