package router

import (
	"testing"
)

// TestRoutingTable_Exhaustive verifies every canonical intent has a
// routing table row. Adding an intent without a mapping fails here.
func TestRoutingTable_Exhaustive(t *testing.T) {
	for _, intent := range Intents() {
		entry, ok := routingTable[intent]
		if !ok {
			t.Errorf("intent %q missing from routing table", intent)
			continue
		}
		if entry.Domain == "" || entry.Route == "" {
			t.Errorf("intent %q has incomplete routing entry %+v", intent, entry)
		}
		if entry.Confidence <= 0 || entry.Confidence > 1 {
			t.Errorf("intent %q has confidence %v out of (0,1]", intent, entry.Confidence)
		}
	}

	// No orphan rows either.
	if len(routingTable) != len(Intents()) {
		t.Errorf("routing table has %d rows for %d intents", len(routingTable), len(Intents()))
	}
}

// TestNormalizeIntent covers canonical codes, legacy aliases and
// rejection of anything outside the closed set.
func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		code     string
		expected Intent
		wantErr  bool
	}{
		{"policy_qa", IntentPolicyQA, false},
		{"unknown", IntentUnknown, false},
		{"regulation_qa", IntentPolicyQA, false},
		{"rule_qa", IntentPolicyQA, false},
		{"training_qa", IntentEducationQA, false},
		{"edu_content", IntentEducationQA, false},
		{"hr_inquiry", IntentBackendStatus, false},
		{"status_check", IntentBackendStatus, false},
		{"chitchat", IntentGeneralChat, false},
		{"smalltalk", IntentGeneralChat, false},
		{"usage_help", IntentSystemHelp, false},
		{"none", IntentUnknown, false},
		{"fallback", IntentUnknown, false},
		{"POLICY_QA", IntentUnknown, true},
		{"banana", IntentUnknown, true},
		{"", IntentUnknown, true},
	}

	for _, tt := range tests {
		got, err := NormalizeIntent(tt.code)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizeIntent(%q): expected error, got %q", tt.code, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeIntent(%q): unexpected error %v", tt.code, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("NormalizeIntent(%q): expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

// TestLegacyAliases_ResolveToCanonical verifies every alias maps onto
// the canonical set and no alias shadows a canonical code.
func TestLegacyAliases_ResolveToCanonical(t *testing.T) {
	canonical := make(map[Intent]bool)
	for _, intent := range Intents() {
		canonical[intent] = true
	}

	for alias, target := range legacyIntentAliases {
		if !canonical[target] {
			t.Errorf("alias %q resolves to non-canonical intent %q", alias, target)
		}
		if canonical[Intent(alias)] && Intent(alias) != target {
			t.Errorf("alias %q shadows canonical intent with a different target %q", alias, target)
		}
	}
}

func TestNormalizeSubIntent(t *testing.T) {
	if sub, err := NormalizeSubIntent(""); err != nil || sub != SubIntentNone {
		t.Errorf("empty sub-intent should be valid, got (%q, %v)", sub, err)
	}
	if _, err := NormalizeSubIntent("quiz_start"); err != nil {
		t.Errorf("quiz_start should be valid, got %v", err)
	}
	if _, err := NormalizeSubIntent("quiz_restart"); err == nil {
		t.Error("quiz_restart should be rejected")
	}
}

func TestNormalizeDomain(t *testing.T) {
	for _, code := range []string{"policy", "education", "hr", "incident", "general", "system"} {
		if _, err := NormalizeDomain(code); err != nil {
			t.Errorf("NormalizeDomain(%q): unexpected error %v", code, err)
		}
	}
	if _, err := NormalizeDomain("finance"); err == nil {
		t.Error("NormalizeDomain(finance): expected rejection")
	}
}

// TestLookup_SubIntentDomainOverride verifies sub-intents carry their
// own topical domain.
func TestLookup_SubIntentDomainOverride(t *testing.T) {
	tests := []struct {
		intent Intent
		sub    SubIntent
		domain Domain
	}{
		{IntentBackendStatus, SubIntentEducationStatus, DomainEducation},
		{IntentBackendStatus, SubIntentIncidentReport, DomainIncident},
		{IntentBackendStatus, SubIntentHRLeave, DomainHR},
		{IntentBackendStatus, SubIntentNone, DomainHR},
		{IntentPolicyQA, SubIntentNone, DomainPolicy},
	}

	for _, tt := range tests {
		domain, _, _ := Lookup(tt.intent, tt.sub)
		if domain != tt.domain {
			t.Errorf("Lookup(%q, %q): expected domain %q, got %q", tt.intent, tt.sub, tt.domain, domain)
		}
	}
}

// TestClassificationResult_Validate covers the result invariants.
func TestClassificationResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		result  ClassificationResult
		wantErr bool
	}{
		{
			name:   "plain result",
			result: newResult(IntentPolicyQA, SubIntentNone, 0.85),
		},
		{
			name: "clarification and confirmation together",
			result: ClassificationResult{
				Intent:               IntentUnknown,
				NeedsClarification:   true,
				RequiresConfirmation: true,
				SubIntent:            SubIntentQuizStart,
			},
			wantErr: true,
		},
		{
			name: "confirmation on non-critical sub-intent",
			result: ClassificationResult{
				Intent:               IntentBackendStatus,
				SubIntent:            SubIntentHRLeave,
				RequiresConfirmation: true,
			},
			wantErr: true,
		},
		{
			name: "confirmation on critical sub-intent",
			result: ClassificationResult{
				Intent:               IntentBackendStatus,
				SubIntent:            SubIntentQuizStart,
				RequiresConfirmation: true,
				Confidence:           0.95,
			},
		},
		{
			name:    "confidence above one",
			result:  ClassificationResult{Intent: IntentGeneralChat, Confidence: 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected invariant violation, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSubIntent_IsCritical(t *testing.T) {
	critical := []SubIntent{SubIntentQuizStart, SubIntentQuizSubmit, SubIntentQuizGenerate}
	for _, sub := range critical {
		if !sub.IsCritical() {
			t.Errorf("%q should be critical", sub)
		}
	}
	nonCritical := []SubIntent{SubIntentNone, SubIntentHRLeave, SubIntentEducationStatus, SubIntentIncidentReport}
	for _, sub := range nonCritical {
		if sub.IsCritical() {
			t.Errorf("%q should not be critical", sub)
		}
	}
}
