// Package policy evaluates declarative gating rules over a declared intent
// and produces the DCP-02 policy decision for it.
//
// Rules are CEL expressions over the intent's wire form, bound to the
// variable `intent` (e.g. `intent.action_type == "initiate_payment"` or
// `"pii" in intent.data_classes`). Evaluation is deterministic and pure:
// rules see only the intent, run in declaration order, and the most severe
// matching decision wins (block > escalate > approve). Risk weights of all
// matching rules accumulate into the decision's risk score, clamped to
// [0, 1].
//
// The resulting PolicyDecision is protocol data like any other artifact; the
// core treats it as immutable input, not enforced state.
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"

	"dcp-ai.org/dcp/bundle"
)

// Decision outcomes, in increasing severity.
const (
	Approve  = "approve"
	Escalate = "escalate"
	Block    = "block"
)

// Rule is one gating rule: when Expr evaluates true against an intent, the
// rule's Decision and Reason apply and RiskWeight is added to the score.
type Rule struct {
	Name       string  `json:"name"`
	Expr       string  `json:"expr"`
	Decision   string  `json:"decision"` // approve | escalate | block
	Reason     string  `json:"reason"`
	RiskWeight float64 `json:"risk_weight"`
}

type compiledRule struct {
	rule Rule
	prg  cel.Program
}

// Gate is a compiled, reusable rule set. A Gate is immutable after
// construction and safe for concurrent use.
type Gate struct {
	rules []compiledRule
}

// NewGate compiles the rule set. Compilation errors name the offending rule;
// a rule whose expression is not boolean is rejected at compile time.
func NewGate(rules []Rule) (*Gate, error) {
	env, err := cel.NewEnv(cel.Variable("intent", cel.DynType))
	if err != nil {
		return nil, err
	}

	g := &Gate{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if err := checkDecision(r.Decision); err != nil {
			return nil, fmt.Errorf("policy rule %q: %w", r.Name, err)
		}
		ast, iss := env.Compile(r.Expr)
		if iss.Err() != nil {
			return nil, fmt.Errorf("policy rule %q: %w", r.Name, iss.Err())
		}
		if ast.OutputType().String() != "bool" {
			return nil, fmt.Errorf("policy rule %q: expression must be boolean, got %s",
				r.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("policy rule %q: %w", r.Name, err)
		}
		g.rules = append(g.rules, compiledRule{rule: r, prg: prg})
	}
	return g, nil
}

// ParseRules decodes a JSON rule set.
func ParseRules(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("policy: invalid rule set: %w", err)
	}
	return rules, nil
}

// Evaluate gates an intent and returns its policy decision.
//
// A rule that errors at evaluation time (e.g. a field access on a channel
// that lacks it) counts as not matching; gating is about what the intent
// declares, and an expression that cannot be answered for this intent does
// not apply to it.
func (g *Gate) Evaluate(intent *bundle.Intent) (*bundle.PolicyDecision, error) {
	if intent == nil {
		return nil, fmt.Errorf("policy: nil intent")
	}
	intentDoc, err := toWireForm(intent)
	if err != nil {
		return nil, err
	}

	decision := Approve
	risk := 0.0
	var reasons []string

	for _, cr := range g.rules {
		out, _, err := cr.prg.Eval(map[string]any{"intent": intentDoc})
		if err != nil {
			continue
		}
		matched, ok := out.Value().(bool)
		if !ok || !matched {
			continue
		}
		risk += cr.rule.RiskWeight
		if cr.rule.Reason != "" {
			reasons = append(reasons, cr.rule.Reason)
		} else {
			reasons = append(reasons, cr.rule.Name)
		}
		if severity(cr.rule.Decision) > severity(decision) {
			decision = cr.rule.Decision
		}
	}

	if len(reasons) == 0 {
		reasons = []string{"no policy rule matched"}
	}
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}

	pd := &bundle.PolicyDecision{
		DCPVersion: bundle.Version,
		IntentID:   intent.IntentID,
		Decision:   decision,
		RiskScore:  risk,
		Reasons:    reasons,
	}
	if decision == Escalate {
		pd.RequiredConfirmation = &bundle.RequiredConfirmation{Type: "human_approve"}
	}
	return pd, nil
}

func toWireForm(intent *bundle.Intent) (map[string]any, error) {
	raw, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("policy: intent not encodable: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkDecision(d string) error {
	switch d {
	case Approve, Escalate, Block:
		return nil
	default:
		return fmt.Errorf("unknown decision %q", d)
	}
}

func severity(d string) int {
	switch d {
	case Block:
		return 2
	case Escalate:
		return 1
	default:
		return 0
	}
}
