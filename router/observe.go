package router

import (
	"log/slog"
	"time"
)

// TurnObservation carries the per-turn fields consumed by the
// logging/metrics collaborators.
type TurnObservation struct {
	TurnID          string
	ConversationID  string
	Intent          Intent
	Domain          Domain
	Route           RouteType
	Confidence      float64
	Layer           string // "pending", "cache", "rule", "llm"
	ClarifyFired    bool
	ConfirmFired    bool
	Trace           []TraceEntry
	RuleLatency     time.Duration
	FallbackLatency time.Duration
	TotalLatency    time.Duration
}

// Observer consumes one observation per turn.
type Observer interface {
	ObserveTurn(obs TurnObservation)
}

// SlogObserver logs each turn decision with structured fields.
type SlogObserver struct{}

// ObserveTurn implements Observer.
func (SlogObserver) ObserveTurn(obs TurnObservation) {
	ruleNames := make([]string, len(obs.Trace))
	for i, t := range obs.Trace {
		ruleNames[i] = t.Rule
	}
	slog.Info("turn routed",
		"turn_id", obs.TurnID,
		"conversation_id", obs.ConversationID,
		"intent", obs.Intent,
		"domain", obs.Domain,
		"route", obs.Route,
		"confidence", obs.Confidence,
		"layer", obs.Layer,
		"clarify_fired", obs.ClarifyFired,
		"confirm_fired", obs.ConfirmFired,
		"rules", ruleNames,
		"rule_ms", obs.RuleLatency.Milliseconds(),
		"fallback_ms", obs.FallbackLatency.Milliseconds(),
		"total_ms", obs.TotalLatency.Milliseconds(),
	)
}

// MultiObserver fans one observation out to several observers.
type MultiObserver []Observer

// ObserveTurn implements Observer.
func (m MultiObserver) ObserveTurn(obs TurnObservation) {
	for _, o := range m {
		o.ObserveTurn(obs)
	}
}
