// Package router implements the two-tier intent router: a deterministic
// rule layer, an LLM-backed fallback layer, and the orchestrator that
// sequences them with clarification and confirmation gates.
package router

// Intent is the primary classification outcome. The set is closed:
// every turn resolves to exactly one of the six canonical values.
type Intent string

const (
	IntentPolicyQA      Intent = "policy_qa"
	IntentEducationQA   Intent = "education_qa"
	IntentBackendStatus Intent = "backend_status"
	IntentGeneralChat   Intent = "general_chat"
	IntentSystemHelp    Intent = "system_help"
	IntentUnknown       Intent = "unknown"
)

// legacyIntentAliases maps retired intent codes onto the canonical set.
// Aliases exist only for backward compatibility and resolve 1:1 before
// any canonical handling; rules themselves never emit them.
var legacyIntentAliases = map[string]Intent{
	"regulation_qa": IntentPolicyQA,
	"rule_qa":       IntentPolicyQA,
	"training_qa":   IntentEducationQA,
	"edu_content":   IntentEducationQA,
	"hr_inquiry":    IntentBackendStatus,
	"status_check":  IntentBackendStatus,
	"chitchat":      IntentGeneralChat,
	"smalltalk":     IntentGeneralChat,
	"usage_help":    IntentSystemHelp,
	"none":          IntentUnknown,
	"fallback":      IntentUnknown,
}

// NormalizeIntent resolves an externally supplied intent code (Layer 2
// output, persisted state) into a canonical Intent. Legacy aliases are
// resolved first; anything outside the closed set is rejected, never
// coerced.
func NormalizeIntent(code string) (Intent, error) {
	if alias, ok := legacyIntentAliases[code]; ok {
		return alias, nil
	}
	switch Intent(code) {
	case IntentPolicyQA, IntentEducationQA, IntentBackendStatus,
		IntentGeneralChat, IntentSystemHelp, IntentUnknown:
		return Intent(code), nil
	}
	return IntentUnknown, unknownEnumError("intent", code)
}

// Intents returns the canonical intent set in a stable order.
func Intents() []Intent {
	return []Intent{
		IntentPolicyQA, IntentEducationQA, IntentBackendStatus,
		IntentGeneralChat, IntentSystemHelp, IntentUnknown,
	}
}

// SubIntent is a finer-grained action identifier attached to one Intent.
type SubIntent string

const (
	SubIntentNone            SubIntent = ""
	SubIntentQuizStart       SubIntent = "quiz_start"
	SubIntentQuizSubmit      SubIntent = "quiz_submit"
	SubIntentQuizGenerate    SubIntent = "quiz_generate"
	SubIntentEducationStatus SubIntent = "education_status"
	SubIntentHRLeave         SubIntent = "hr_leave"
	SubIntentHRAttendance    SubIntent = "hr_attendance"
	SubIntentHRWelfare       SubIntent = "hr_welfare"
	SubIntentIncidentReport  SubIntent = "incident_report"
)

// criticalSubIntents marks actions with irreversible side effects.
// Confirmation policy is owned by this list, never by the fallback layer.
var criticalSubIntents = map[SubIntent]bool{
	SubIntentQuizStart:    true,
	SubIntentQuizSubmit:   true,
	SubIntentQuizGenerate: true,
}

// IsCritical reports whether executing the sub-intent cannot be undone.
func (s SubIntent) IsCritical() bool {
	return criticalSubIntents[s]
}

// NormalizeSubIntent validates an externally supplied sub-intent code.
// Empty means "no sub-intent" and is always valid.
func NormalizeSubIntent(code string) (SubIntent, error) {
	switch SubIntent(code) {
	case SubIntentNone, SubIntentQuizStart, SubIntentQuizSubmit, SubIntentQuizGenerate,
		SubIntentEducationStatus, SubIntentHRLeave, SubIntentHRAttendance,
		SubIntentHRWelfare, SubIntentIncidentReport:
		return SubIntent(code), nil
	}
	return SubIntentNone, unknownEnumError("sub_intent", code)
}

// Domain is the topical bucket used for downstream content filtering,
// e.g. retrieval corpus selection. Independent of Intent, but every
// Intent carries a default Domain in the routing table.
type Domain string

const (
	DomainPolicy    Domain = "policy"
	DomainEducation Domain = "education"
	DomainHR        Domain = "hr"
	DomainIncident  Domain = "incident"
	DomainGeneral   Domain = "general"
	DomainSystem    Domain = "system"
)

// NormalizeDomain validates an externally supplied domain code.
func NormalizeDomain(code string) (Domain, error) {
	switch Domain(code) {
	case DomainPolicy, DomainEducation, DomainHR, DomainIncident, DomainGeneral, DomainSystem:
		return Domain(code), nil
	}
	return DomainGeneral, unknownEnumError("domain", code)
}

// RouteType selects which downstream handler processes the turn.
// Exactly one route is chosen per turn; the dispatcher is external.
type RouteType string

const (
	RouteRetrieval  RouteType = "retrieval"   // retrieval-augmented answering
	RouteBackendAPI RouteType = "backend_api" // backend data API call
	RouteGenerate   RouteType = "generate"    // plain language-model reply
	RouteHelp       RouteType = "help"        // canned help text
	RouteFallback   RouteType = "fallback"    // unknown / last resort
)

// routeEntry is one row of the static routing table.
type routeEntry struct {
	Domain     Domain
	Route      RouteType
	Confidence float64
}

// routingTable maps each canonical intent to its default domain, route
// and baseline confidence. Exhaustiveness over Intents() is asserted in
// tests so adding an intent without a mapping fails fast.
var routingTable = map[Intent]routeEntry{
	IntentPolicyQA:      {DomainPolicy, RouteRetrieval, 0.85},
	IntentEducationQA:   {DomainEducation, RouteRetrieval, 0.85},
	IntentBackendStatus: {DomainHR, RouteBackendAPI, 0.90},
	IntentGeneralChat:   {DomainGeneral, RouteGenerate, 0.80},
	IntentSystemHelp:    {DomainSystem, RouteHelp, 0.90},
	IntentUnknown:       {DomainGeneral, RouteFallback, 0.30},
}

// subIntentDomains overrides the intent's default domain for sub-intents
// that belong to a different topical bucket.
var subIntentDomains = map[SubIntent]Domain{
	SubIntentEducationStatus: DomainEducation,
	SubIntentIncidentReport:  DomainIncident,
}

// Lookup resolves (intent, subIntent) against the routing table.
func Lookup(intent Intent, sub SubIntent) (Domain, RouteType, float64) {
	entry, ok := routingTable[intent]
	if !ok {
		entry = routingTable[IntentUnknown]
	}
	domain := entry.Domain
	if d, ok := subIntentDomains[sub]; ok {
		domain = d
	}
	return domain, entry.Route, entry.Confidence
}

// TraceEntry records one rule that fired during classification.
type TraceEntry struct {
	Rule    string   `json:"rule"`
	Matched []string `json:"matched,omitempty"`
}

// ClassificationResult is the core value object produced per turn.
//
// Invariants (asserted by Validate and covered in tests):
//   - NeedsClarification and RequiresConfirmation are never both true.
//   - RequiresConfirmation implies SubIntent.IsCritical().
//   - Confidence is a policy-assigned constant per matched rule, within [0,1].
type ClassificationResult struct {
	Intent                Intent       `json:"intent"`
	Domain                Domain       `json:"domain"`
	Route                 RouteType    `json:"route"`
	SubIntent             SubIntent    `json:"sub_intent,omitempty"`
	Confidence            float64      `json:"confidence"`
	NeedsClarification    bool         `json:"needs_clarification,omitempty"`
	ClarificationQuestion string       `json:"clarification_question,omitempty"`
	ClarificationGroup    ClarifyGroup `json:"clarification_group,omitempty"`
	RequiresConfirmation  bool         `json:"requires_confirmation,omitempty"`
	ConfirmationPrompt    string       `json:"confirmation_prompt,omitempty"`
	Trace                 []TraceEntry `json:"trace,omitempty"`
}

// addTrace appends a fired rule to the debug trace.
func (r *ClassificationResult) addTrace(rule string, matched ...string) {
	r.Trace = append(r.Trace, TraceEntry{Rule: rule, Matched: matched})
}

// Validate checks the result invariants.
func (r *ClassificationResult) Validate() error {
	if r.NeedsClarification && r.RequiresConfirmation {
		return errInvalidResult("clarification and confirmation are mutually exclusive")
	}
	if r.RequiresConfirmation && !r.SubIntent.IsCritical() {
		return errInvalidResult("confirmation required for non-critical sub-intent " + string(r.SubIntent))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errInvalidResult("confidence out of range")
	}
	return nil
}

// newResult builds a result from the routing table with the
// policy-assigned confidence for the matched rule.
func newResult(intent Intent, sub SubIntent, confidence float64) ClassificationResult {
	domain, route, _ := Lookup(intent, sub)
	return ClassificationResult{
		Intent:     intent,
		Domain:     domain,
		Route:      route,
		SubIntent:  sub,
		Confidence: confidence,
	}
}
