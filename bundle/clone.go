package bundle

// Deep copies for builder ownership transfer. Values flowing into or out of a
// Builder are copied so no caller retains a mutable alias into a finalized
// bundle.

func cloneHBR(h HumanBindingRecord) HumanBindingRecord {
	h.ExpiresAt = cloneStringPtr(h.ExpiresAt)
	h.Contact = cloneStringPtr(h.Contact)
	return h
}

func clonePassport(p AgentPassport) AgentPassport {
	p.Capabilities = cloneStrings(p.Capabilities)
	return p
}

func cloneIntent(i Intent) Intent {
	i.Target = cloneTarget(i.Target)
	i.DataClasses = cloneStrings(i.DataClasses)
	i.RequiresConsent = cloneBoolPtr(i.RequiresConsent)
	return i
}

func cloneTarget(t IntentTarget) IntentTarget {
	t.To = cloneStringPtr(t.To)
	t.Domain = cloneStringPtr(t.Domain)
	t.URL = cloneStringPtr(t.URL)
	t.Extra = cloneMap(t.Extra)
	return t
}

func clonePolicy(p PolicyDecision) PolicyDecision {
	p.Reasons = cloneStrings(p.Reasons)
	if p.RequiredConfirmation != nil {
		rc := *p.RequiredConfirmation
		rc.Fields = cloneStrings(rc.Fields)
		p.RequiredConfirmation = &rc
	}
	return p
}

func cloneEntry(e AuditEntry) AuditEntry {
	e.Evidence = cloneEvidence(e.Evidence)
	return e
}

func cloneEvidence(e AuditEvidence) AuditEvidence {
	e.Tool = cloneStringPtr(e.Tool)
	e.ResultRef = cloneStringPtr(e.ResultRef)
	e.Extra = cloneMap(e.Extra)
	return e
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneMap copies one level plus nested maps and slices. Extra payloads are
// decoded JSON, so these three shapes cover every value that can occur.
func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
