package router

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the conversation-visible orchestrator state.
type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingClarification State = "awaiting_clarification"
	StateAwaitingConfirmation  State = "awaiting_confirmation"
)

// Decision is the single structured routing decision produced per turn.
// When State is not Idle, Reply carries the question/prompt to send
// back instead of executing the route.
type Decision struct {
	TurnID         string               `json:"turn_id"`
	ConversationID string               `json:"conversation_id"`
	State          State                `json:"state"`
	Result         ClassificationResult `json:"result"`
	Reply          string               `json:"reply,omitempty"`
}

// affirmativeAnswers and negativeAnswers resolve a confirmation turn.
// Short common confirmation words only; anything else cancels.
var affirmativeAnswers = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "confirmed": true,
	"proceed": true, "go ahead": true, "do it": true,
}

var negativeAnswers = map[string]bool{
	"no": true, "n": true, "nope": true, "cancel": true, "stop": true,
	"abort": true, "never mind": true, "nevermind": true, "don't": true,
}

// maxClarifyTurns bounds how often the same clarification is re-asked
// before the conversation falls back to fresh classification.
const maxClarifyTurns = 2

// Orchestrator sequences pending-interaction resolution, Layer 1, the
// confidence gate, Layer 2 and the safety gates. Turns for the same
// conversation are serialized; different conversations run fully in
// parallel.
type Orchestrator struct {
	cfg      Config
	rules    *RuleClassifier
	fallback *FallbackClassifier
	pending  PendingStore
	cache    *DecisionCache
	observer Observer
	examples []FewShotExample

	locks sync.Map // conversation id -> *sync.Mutex
}

// OrchestratorOption customizes construction.
type OrchestratorOption func(*Orchestrator)

// WithFallback wires the Layer 2 classifier.
func WithFallback(f *FallbackClassifier) OrchestratorOption {
	return func(o *Orchestrator) { o.fallback = f }
}

// WithPendingStore overrides the default in-memory pending store.
func WithPendingStore(s PendingStore) OrchestratorOption {
	return func(o *Orchestrator) { o.pending = s }
}

// WithDecisionCache enables caching of confident Layer 1 results.
func WithDecisionCache(c *DecisionCache) OrchestratorOption {
	return func(o *Orchestrator) { o.cache = c }
}

// WithObserver sets the per-turn observation sink.
func WithObserver(obs Observer) OrchestratorOption {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithFewShotExamples overrides the fallback prompt exemplars.
func WithFewShotExamples(examples []FewShotExample) OrchestratorOption {
	return func(o *Orchestrator) { o.examples = examples }
}

// NewOrchestrator validates the config snapshot and assembles the
// turn handler. Configuration errors are fatal here, at startup.
func NewOrchestrator(cfg Config, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:      cfg,
		rules:    NewRuleClassifier(cfg),
		observer: SlogObserver{},
		examples: DefaultFewShotExamples(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pending == nil {
		o.pending = NewMemoryPendingStore(0, cfg.PendingTTL)
	}
	return o, nil
}

// HandleTurn classifies one user turn. It never panics and never
// returns an error to the caller: the worst case is the unknown intent
// on the fallback route.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID, input string) *Decision {
	start := time.Now()
	turnID := uuid.NewString()

	decision := &Decision{TurnID: turnID, ConversationID: conversationID, State: StateIdle}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("turn handler panic recovered", "conversation_id", conversationID, "panic", r)
			result := newResult(IntentUnknown, SubIntentNone, confidenceUnknown)
			result.addTrace("panic_recovered")
			decision.State = StateIdle
			decision.Result = result
			decision.Reply = ""
		}
	}()

	mu := o.conversationLock(conversationID)
	mu.Lock()
	defer mu.Unlock()

	var obs TurnObservation
	obs.TurnID = turnID
	obs.ConversationID = conversationID

	o.handleTurnLocked(ctx, conversationID, input, decision, &obs)

	obs.Intent = decision.Result.Intent
	obs.Domain = decision.Result.Domain
	obs.Route = decision.Result.Route
	obs.Confidence = decision.Result.Confidence
	obs.ClarifyFired = decision.State == StateAwaitingClarification
	obs.ConfirmFired = decision.State == StateAwaitingConfirmation
	obs.Trace = decision.Result.Trace
	obs.TotalLatency = time.Since(start)
	if o.observer != nil {
		o.observer.ObserveTurn(obs)
	}
	return decision
}

func (o *Orchestrator) handleTurnLocked(ctx context.Context, conversationID, input string, decision *Decision, obs *TurnObservation) {
	// 1. Pending-interaction resolution comes before everything else.
	if pending := o.loadPending(ctx, conversationID); pending != nil {
		if o.resumePending(ctx, conversationID, input, pending, decision, obs) {
			return
		}
		// Pending discarded (expired, over-length answer, exhausted
		// re-asks): fall through to fresh classification.
	}

	o.classifyFresh(ctx, conversationID, input, decision, obs)
}

// loadPending fetches and expires pending state. Store errors and
// expiry are both treated as "no pending interaction".
func (o *Orchestrator) loadPending(ctx context.Context, conversationID string) *PendingInteraction {
	pending, err := o.pending.Get(ctx, conversationID)
	if err != nil {
		slog.Warn("pending store read failed, treating as no pending state",
			"conversation_id", conversationID, "error", err)
		return nil
	}
	if pending == nil {
		return nil
	}
	if pending.Expired(o.cfg.PendingTTL, time.Now()) {
		slog.Debug("pending interaction expired", "conversation_id", conversationID, "kind", pending.Kind)
		o.clearPending(ctx, conversationID)
		return nil
	}
	return pending
}

// resumePending interprets the new message as an answer to the pending
// gate. Returns false when the pending state was discarded and the
// message should be classified fresh.
func (o *Orchestrator) resumePending(ctx context.Context, conversationID, input string, pending *PendingInteraction, decision *Decision, obs *TurnObservation) bool {
	matcher := o.rules.matcher
	obs.Layer = "pending"

	// A long message is a new question, not an answer.
	if !matcher.WithinAnswerCap(input) {
		o.clearPending(ctx, conversationID)
		return false
	}

	switch pending.Kind {
	case PendingClarification:
		return o.resumeClarification(ctx, conversationID, input, pending, decision)
	case PendingConfirmation:
		o.resumeConfirmation(ctx, conversationID, input, pending, decision)
		return true
	default:
		o.clearPending(ctx, conversationID)
		return false
	}
}

// clarifyTargets resolves each boundary's answer sides to intents.
var clarifyTargets = map[ClarifyGroup]struct {
	retrieval     Intent
	retrievalConf float64
	status        SubIntent
	statusConf    float64
}{
	GroupEducation: {IntentEducationQA, confidenceContent, SubIntentEducationStatus, confidenceStatus},
	GroupLeave:     {IntentPolicyQA, confidenceContent, SubIntentHRLeave, confidenceStatus},
}

func (o *Orchestrator) resumeClarification(ctx context.Context, conversationID, input string, pending *PendingInteraction, decision *Decision) bool {
	vocab, ok := o.cfg.ClarifyAnswers[pending.Group]
	targets, tok := clarifyTargets[pending.Group]
	if !ok || !tok {
		o.clearPending(ctx, conversationID)
		return false
	}

	matcher := o.rules.matcher
	if word, found := matcher.ShortAnswerLookup(input, vocab.RetrievalWords); found {
		o.clearPending(ctx, conversationID)
		result := newResult(targets.retrieval, SubIntentNone, targets.retrievalConf)
		result.addTrace("clarification_resolved", string(pending.Group), word)
		decision.Result = result
		return true
	}
	if word, found := matcher.ShortAnswerLookup(input, vocab.StatusWords); found {
		o.clearPending(ctx, conversationID)
		result := newResult(IntentBackendStatus, targets.status, targets.statusConf)
		result.addTrace("clarification_resolved", string(pending.Group), word)
		decision.Result = result
		return true
	}

	// Unresolved: re-ask the same clarification, bounded.
	pending.Turns++
	if pending.Turns >= maxClarifyTurns {
		o.clearPending(ctx, conversationID)
		return false
	}
	o.storePending(ctx, conversationID, pending)
	decision.State = StateAwaitingClarification
	result := ClassificationResult{
		Intent:                IntentUnknown,
		Domain:                DomainGeneral,
		Route:                 RouteFallback,
		NeedsClarification:    true,
		ClarificationQuestion: pending.Question,
		ClarificationGroup:    pending.Group,
	}
	result.addTrace("clarification_reasked", string(pending.Group))
	decision.Result = result
	decision.Reply = pending.Question
	return true
}

func (o *Orchestrator) resumeConfirmation(ctx context.Context, conversationID, input string, pending *PendingInteraction, decision *Decision) {
	o.clearPending(ctx, conversationID)

	answer := strings.TrimRight(Normalize(input), ".!?")
	if affirmativeAnswers[answer] && pending.Staged != nil {
		result := *pending.Staged
		result.RequiresConfirmation = false
		result.ConfirmationPrompt = ""
		result.addTrace("confirmation_accepted")
		decision.Result = result
		return
	}

	// Negative or unrecognized answers cancel the staged action.
	if !negativeAnswers[answer] {
		slog.Debug("unrecognized confirmation answer treated as cancel",
			"conversation_id", conversationID)
	}
	result := newResult(IntentUnknown, SubIntentNone, confidenceUnknown)
	result.addTrace("confirmation_cancelled")
	decision.Result = result
}

// classifyFresh runs Layer 1, the confidence gate, Layer 2 and the
// safety gates for a message with no pending state.
func (o *Orchestrator) classifyFresh(ctx context.Context, conversationID, input string, decision *Decision, obs *TurnObservation) {
	var result ClassificationResult
	fromCache := false

	if o.cache != nil {
		if cached, ok := o.cache.Get(input); ok {
			result = cached
			fromCache = true
			obs.Layer = "cache"
		}
	}

	if !fromCache {
		ruleStart := time.Now()
		result = o.rules.Classify(input)
		obs.RuleLatency = time.Since(ruleStart)
		obs.Layer = "rule"
	}

	// 2. Clarification precedes the confidence gate.
	if result.NeedsClarification {
		o.stagePending(ctx, conversationID, &PendingInteraction{
			Kind:      PendingClarification,
			Group:     result.ClarificationGroup,
			Question:  result.ClarificationQuestion,
			CreatedAt: time.Now(),
		})
		decision.State = StateAwaitingClarification
		decision.Result = result
		decision.Reply = result.ClarificationQuestion
		return
	}

	// 3-4. Confidence gate, then the fallback layer. Layer 2 is a
	// precision optimization: on any failure the Layer 1 result stands.
	if !fromCache && result.Confidence < o.cfg.ConfidenceThreshold && o.fallback != nil {
		fallbackStart := time.Now()
		refined, err := o.fallback.Classify(ctx, input, o.examples)
		obs.FallbackLatency = time.Since(fallbackStart)
		if err != nil {
			slog.Warn("fallback classifier unavailable, keeping rule result",
				"conversation_id", conversationID,
				"intent", result.Intent,
				"confidence", result.Confidence,
				"error", err)
			result.addTrace("fallback_unavailable")
		} else {
			refined.Trace = append(result.Trace, refined.Trace...)
			result = refined
			obs.Layer = "llm"
		}
	}

	// 5. Confirmation follows full classification.
	if result.RequiresConfirmation {
		staged := result
		o.stagePending(ctx, conversationID, &PendingInteraction{
			Kind:      PendingConfirmation,
			Staged:    &staged,
			CreatedAt: time.Now(),
		})
		decision.State = StateAwaitingConfirmation
		decision.Result = result
		decision.Reply = result.ConfirmationPrompt
		return
	}

	// 6. Finalized: hand to the external dispatcher.
	if o.cache != nil && obs.Layer == "rule" && result.Confidence >= o.cfg.ConfidenceThreshold {
		o.cache.Set(input, result)
	}
	decision.Result = result
}

// stagePending persists gate state unless the surrounding request was
// cancelled; a cancelled turn must not leak partial pending state.
func (o *Orchestrator) stagePending(ctx context.Context, conversationID string, pending *PendingInteraction) {
	if ctx.Err() != nil {
		slog.Debug("request cancelled, pending state not persisted", "conversation_id", conversationID)
		return
	}
	o.storePending(ctx, conversationID, pending)
}

func (o *Orchestrator) storePending(ctx context.Context, conversationID string, pending *PendingInteraction) {
	if err := o.pending.Put(ctx, conversationID, pending); err != nil {
		slog.Warn("pending store write failed", "conversation_id", conversationID, "error", err)
	}
}

func (o *Orchestrator) clearPending(ctx context.Context, conversationID string) {
	if err := o.pending.Delete(ctx, conversationID); err != nil {
		slog.Warn("pending store delete failed", "conversation_id", conversationID, "error", err)
	}
}

// conversationLock returns the mutex serializing turns for one
// conversation.
func (o *Orchestrator) conversationLock(conversationID string) *sync.Mutex {
	mu, _ := o.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
