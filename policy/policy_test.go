package policy

import (
	"strings"
	"testing"

	"dcp-ai.org/dcp/bundle"
)

func paymentIntent() *bundle.Intent {
	return &bundle.Intent{
		DCPVersion:      bundle.Version,
		IntentID:        "intent_p",
		AgentID:         "agent_p",
		HumanID:         "human_p",
		Timestamp:       "2026-01-01T00:00:00Z",
		ActionType:      "initiate_payment",
		Target:          bundle.IntentTarget{Channel: "payments"},
		DataClasses:     []string{"financial", "pii"},
		EstimatedImpact: "high",
	}
}

func mustGate(t *testing.T, rules []Rule) *Gate {
	t.Helper()
	g, err := NewGate(rules)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return g
}

func TestNewGate_RejectsBadRules(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
	}{
		{"syntax error", Rule{Name: "r", Expr: `intent.action_type ==`, Decision: Block}},
		{"non-boolean output", Rule{Name: "r", Expr: `intent.action_type`, Decision: Block}},
		{"unknown decision", Rule{Name: "r", Expr: `true`, Decision: "reject"}},
	}
	for _, tc := range cases {
		_, err := NewGate([]Rule{tc.rule})
		if err == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
		if !strings.Contains(err.Error(), `"r"`) {
			t.Fatalf("%s: error does not name the rule: %v", tc.name, err)
		}
	}
}

func TestEvaluate_DefaultApprove(t *testing.T) {
	g := mustGate(t, nil)
	pd, err := g.Evaluate(paymentIntent())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.Decision != Approve {
		t.Fatalf("decision: %s", pd.Decision)
	}
	if pd.RiskScore != 0 {
		t.Fatalf("risk: %v", pd.RiskScore)
	}
	if len(pd.Reasons) != 1 || pd.Reasons[0] != "no policy rule matched" {
		t.Fatalf("reasons: %v", pd.Reasons)
	}
	if pd.IntentID != "intent_p" || pd.DCPVersion != bundle.Version {
		t.Fatalf("decision metadata: %+v", pd)
	}
}

func TestEvaluate_MostSevereDecisionWins(t *testing.T) {
	g := mustGate(t, []Rule{
		{Name: "payments escalate", Expr: `intent.action_type == "initiate_payment"`, Decision: Escalate, Reason: "payment", RiskWeight: 0.3},
		{Name: "pii block", Expr: `"pii" in intent.data_classes`, Decision: Block, Reason: "pii leaves the boundary", RiskWeight: 0.4},
		{Name: "low impact approve", Expr: `intent.estimated_impact == "low"`, Decision: Approve, RiskWeight: 0.1},
	})
	pd, err := g.Evaluate(paymentIntent())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.Decision != Block {
		t.Fatalf("decision: %s", pd.Decision)
	}
	// Both matching rules contribute reasons and risk; the non-matching
	// approve rule contributes neither.
	if len(pd.Reasons) != 2 || pd.Reasons[0] != "payment" || pd.Reasons[1] != "pii leaves the boundary" {
		t.Fatalf("reasons: %v", pd.Reasons)
	}
	if pd.RiskScore < 0.69 || pd.RiskScore > 0.71 {
		t.Fatalf("risk: %v", pd.RiskScore)
	}
	if pd.RequiredConfirmation != nil {
		t.Fatalf("block must not demand confirmation: %+v", pd.RequiredConfirmation)
	}
}

func TestEvaluate_EscalateRequiresHumanApproval(t *testing.T) {
	g := mustGate(t, []Rule{
		{Name: "payments", Expr: `intent.target.channel == "payments"`, Decision: Escalate, RiskWeight: 0.5},
	})
	pd, err := g.Evaluate(paymentIntent())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.Decision != Escalate {
		t.Fatalf("decision: %s", pd.Decision)
	}
	if pd.RequiredConfirmation == nil || pd.RequiredConfirmation.Type != "human_approve" {
		t.Fatalf("required_confirmation: %+v", pd.RequiredConfirmation)
	}
	// The rule has no reason text; its name stands in.
	if len(pd.Reasons) != 1 || pd.Reasons[0] != "payments" {
		t.Fatalf("reasons: %v", pd.Reasons)
	}
}

func TestEvaluate_RiskScoreClamped(t *testing.T) {
	g := mustGate(t, []Rule{
		{Name: "a", Expr: `true`, Decision: Approve, RiskWeight: 0.8},
		{Name: "b", Expr: `true`, Decision: Approve, RiskWeight: 0.9},
	})
	pd, err := g.Evaluate(paymentIntent())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.RiskScore != 1 {
		t.Fatalf("risk not clamped: %v", pd.RiskScore)
	}
}

func TestEvaluate_RuntimeErrorsDoNotMatch(t *testing.T) {
	// The target carries no "to" member for this intent, so the field access
	// errors at evaluation time; the rule simply does not apply.
	g := mustGate(t, []Rule{
		{Name: "recipient check", Expr: `intent.target.to == "x@example.com"`, Decision: Block, RiskWeight: 0.9},
	})
	pd, err := g.Evaluate(paymentIntent())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.Decision != Approve || pd.RiskScore != 0 {
		t.Fatalf("erroring rule influenced the decision: %+v", pd)
	}
}

func TestEvaluate_SeesUnknownTargetFields(t *testing.T) {
	g := mustGate(t, []Rule{
		{Name: "bulk send", Expr: `intent.target.bulk == true`, Decision: Escalate, RiskWeight: 0.2},
	})
	intent := paymentIntent()
	intent.Target.Extra = map[string]any{"bulk": true}
	pd, err := g.Evaluate(intent)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if pd.Decision != Escalate {
		t.Fatalf("rule over extra field did not match: %+v", pd)
	}
}

func TestEvaluate_NilIntent(t *testing.T) {
	g := mustGate(t, nil)
	if _, err := g.Evaluate(nil); err == nil {
		t.Fatalf("expected error for nil intent")
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(`[
	  {"name":"n","expr":"true","decision":"approve","reason":"r","risk_weight":0.25}
	]`))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 1 || rules[0].RiskWeight != 0.25 || rules[0].Decision != Approve {
		t.Fatalf("rules: %+v", rules)
	}
	if _, err := ParseRules([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatalf("expected error for non-array rule set")
	}
}
