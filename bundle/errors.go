package bundle

import "errors"

// BuildError reports an invalid assembly attempt: a required artifact slot is
// unset, a slot was set twice, or the builder was used after Build.
//
// Build errors indicate a programming or integration bug in the caller and
// should not be caught-and-ignored. Verification failures are never surfaced
// as errors; they are returned as a *Report.
type BuildError struct {
	// Missing names the absent slot ("human_binding_record", "agent_passport",
	// "intent", "policy_decision", "audit_entries") when the error is a
	// missing-artifact error; empty otherwise.
	Missing string
	Message string
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// IsMissingArtifact reports whether err is a missing-artifact build error,
// returning the absent slot's name.
func IsMissingArtifact(err error) (slot string, ok bool) {
	var e *BuildError
	if !errors.As(err, &e) || e.Missing == "" {
		return "", false
	}
	return e.Missing, true
}

func missingArtifact(slot string) error {
	return &BuildError{Missing: slot, Message: "bundle: missing " + slot}
}
