package router

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Category names a keyword vocabulary. Matching is deterministic
// substring containment over the configured phrases; no stemming.
type Category string

const (
	CategoryPolicy           Category = "policy"
	CategoryEducationContent Category = "education_content"
	CategoryEducationStatus  Category = "education_status"
	CategoryHRPersonal       Category = "hr_personal"
	CategoryHRLeave          Category = "hr_leave"
	CategoryHRAttendance     Category = "hr_attendance"
	CategoryHRWelfare        Category = "hr_welfare"
	CategoryQuizStart        Category = "quiz_start"
	CategoryQuizSubmit       Category = "quiz_submit"
	CategoryQuizGenerate     Category = "quiz_generate"
	CategorySystemHelp       Category = "system_help"
	CategoryGeneralChat      Category = "general_chat"
	CategoryIncidentReport   Category = "incident_report"
	CategoryIncidentQA       Category = "incident_qa"
	CategorySummary          Category = "summary"
	CategoryAmbiguousLeave   Category = "ambiguous_leave"
)

// requiredCategories must be non-empty for the router to start.
var requiredCategories = []Category{
	CategoryPolicy, CategoryEducationContent, CategoryEducationStatus,
	CategoryHRPersonal, CategoryQuizStart, CategoryQuizSubmit,
	CategoryQuizGenerate, CategorySystemHelp, CategoryGeneralChat,
	CategoryAmbiguousLeave,
}

// ClarifyVocabulary resolves a short clarification answer for one
// boundary: retrieval-side words finalize the content/policy intent,
// status-side words finalize the backend-status intent.
type ClarifyVocabulary struct {
	RetrievalWords []string `yaml:"retrieval_words"`
	StatusWords    []string `yaml:"status_words"`
}

// Config is the injected, immutable configuration snapshot for the
// router. Reloading configuration creates a new snapshot; nothing is
// mutated in place.
type Config struct {
	// Keywords holds the vocabulary per category.
	Keywords map[Category][]string `yaml:"keywords"`

	// ClarifierTerms are explicit policy-indicating words
	// ("regulation", "policy", ...). Their presence always resolves an
	// ambiguity boundary toward the content/policy side.
	ClarifierTerms []string `yaml:"clarifier_terms"`

	// AmbiguousVerbs are the generic request verbs ("tell me", "show
	// me", "check") used by the topic+verb ambiguity heuristic.
	AmbiguousVerbs []string `yaml:"ambiguous_verbs"`

	// ClarifyAnswers maps each boundary to its answer vocabulary.
	ClarifyAnswers map[ClarifyGroup]ClarifyVocabulary `yaml:"clarify_answers"`

	// DatasetAllowlist is a comma-separated list of dataset ids exposed
	// to the retrieval collaborator. Parsed with ParseAllowlist.
	DatasetAllowlist string `yaml:"dataset_allowlist"`

	// ConfidenceThreshold gates Layer 2: the fallback classifier runs
	// only when Layer 1 confidence is strictly below it.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`

	// Feature flags.
	EnableSummaryIntent   bool `yaml:"enable_summary_intent"`
	EnableIncidentIntents bool `yaml:"enable_incident_intents"`

	// PendingTTL bounds how long a clarification/confirmation may wait
	// for its answer before the next message is treated as fresh input.
	PendingTTL time.Duration `yaml:"pending_ttl"`

	// AnswerMaxChars caps the length of a message that may be
	// interpreted as a pending-interaction answer. Longer messages are
	// new questions, not answers.
	AnswerMaxChars int `yaml:"answer_max_chars"`

	// FallbackTimeout bounds one fallback classifier call.
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`
}

// DefaultConfig returns the built-in vocabulary snapshot. Deployments
// override it wholesale via the YAML config; the defaults keep the
// router usable out of the box and anchor the test suite.
func DefaultConfig() Config {
	return Config{
		Keywords: map[Category][]string{
			CategoryPolicy: {
				"policy", "regulation", "rule", "guideline",
				"leave policy", "carry-over", "carryover", "code of conduct",
				"information-protection", "harassment",
			},
			CategoryEducationContent: {
				"education content", "course material", "training course",
				"harassment prevention education", "information-protection education",
				"education curriculum", "what does the education cover",
			},
			CategoryEducationStatus: {
				"education status", "training progress", "course completion",
				"my education", "completed courses", "education record",
			},
			CategoryHRPersonal: {
				"my leave", "leave balance", "remaining leave", "days left",
				"my attendance", "overtime hours", "welfare points", "my payslip",
			},
			CategoryHRLeave:      {"leave balance", "remaining leave", "my leave", "days left"},
			CategoryHRAttendance: {"attendance", "overtime", "clock in", "clock out"},
			CategoryHRWelfare:    {"welfare", "benefit points", "welfare points"},
			CategoryQuizStart:    {"start the quiz", "begin the quiz", "take the quiz", "start quiz"},
			CategoryQuizSubmit:   {"submit the quiz", "submit my answers", "turn in the quiz", "submit quiz"},
			CategoryQuizGenerate: {"generate a quiz", "create a quiz", "make a quiz", "generate quiz"},
			CategorySystemHelp: {
				"help", "how do i use", "what can you do", "usage guide", "instructions",
			},
			CategoryGeneralChat: {
				"hello", "hi there", "good morning", "thank you", "thanks", "how are you",
			},
			CategoryIncidentReport: {
				"report an incident", "report a breach", "file an incident", "security incident report",
			},
			CategoryIncidentQA: {
				"incident response", "what counts as an incident", "incident procedure",
			},
			CategorySummary: {
				"summarize", "summary of", "sum up", "give me a summary",
			},
			CategoryAmbiguousLeave: {"leave", "vacation", "day off", "annual leave"},
		},
		ClarifierTerms: []string{"regulation", "policy", "rule", "guideline", "system"},
		AmbiguousVerbs: []string{"tell me", "show me", "check", "let me know", "what about"},
		ClarifyAnswers: map[ClarifyGroup]ClarifyVocabulary{
			GroupEducation: {
				RetrievalWords: []string{"content", "explain", "course", "material", "summary", "curriculum"},
				StatusWords:    []string{"status", "progress", "check", "completion", "record", "mine"},
			},
			GroupLeave: {
				RetrievalWords: []string{"policy", "regulation", "rule", "guideline", "general"},
				StatusWords:    []string{"status", "balance", "remaining", "mine", "my", "check"},
			},
		},
		DatasetAllowlist:      "policy-docs,education-docs,incident-docs",
		ConfidenceThreshold:   0.85,
		EnableSummaryIntent:   true,
		EnableIncidentIntents: true,
		PendingTTL:            2 * time.Minute,
		AnswerMaxChars:        40,
		FallbackTimeout:       8 * time.Second,
	}
}

// Validate checks the snapshot before the router starts. Malformed
// configuration is fatal: degrading to empty keyword sets would turn
// every turn into an unknown-intent fallback without anyone noticing.
func (c Config) Validate() error {
	var problems []string
	for _, cat := range requiredCategories {
		if len(c.Keywords[cat]) == 0 {
			problems = append(problems, "empty keyword set "+string(cat))
		}
	}
	if len(c.ClarifierTerms) == 0 {
		problems = append(problems, "empty clarifier term set")
	}
	if len(c.AmbiguousVerbs) == 0 {
		problems = append(problems, "empty ambiguous verb set")
	}
	for _, group := range []ClarifyGroup{GroupEducation, GroupLeave} {
		vocab, ok := c.ClarifyAnswers[group]
		if !ok || len(vocab.RetrievalWords) == 0 || len(vocab.StatusWords) == 0 {
			problems = append(problems, "incomplete clarify answer vocabulary for "+string(group))
		}
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		problems = append(problems, "confidence threshold out of (0,1]")
	}
	if c.PendingTTL <= 0 {
		problems = append(problems, "non-positive pending TTL")
	}
	if c.AnswerMaxChars <= 0 {
		problems = append(problems, "non-positive answer char cap")
	}
	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	if c.EnableIncidentIntents &&
		(len(c.Keywords[CategoryIncidentReport]) == 0 || len(c.Keywords[CategoryIncidentQA]) == 0) {
		slog.Warn("incident intents enabled with empty incident vocabulary; incident rules will never fire")
	}
	if c.EnableSummaryIntent && len(c.Keywords[CategorySummary]) == 0 {
		slog.Warn("summary detection enabled with empty summary vocabulary")
	}
	return nil
}

// ParseAllowlist parses the comma-separated dataset allowlist into a
// set. Blank entries are dropped; ids are trimmed and lower-cased.
func (c Config) ParseAllowlist() map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range strings.Split(c.DatasetAllowlist, ",") {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
