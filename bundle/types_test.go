package bundle

import (
	"encoding/json"
	"testing"
)

func TestIntentTarget_PreservesUnknownFields(t *testing.T) {
	wire := []byte(`{"channel":"email","to":"a@example.com","cc":"b@example.com","priority":2}`)

	var target IntentTarget
	if err := json.Unmarshal(wire, &target); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if target.Channel != "email" {
		t.Fatalf("channel: %q", target.Channel)
	}
	if target.To == nil || *target.To != "a@example.com" {
		t.Fatalf("to: %v", target.To)
	}
	if target.Extra["cc"] != "b@example.com" {
		t.Fatalf("extra cc lost: %v", target.Extra)
	}

	out, err := json.Marshal(target)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var roundTrip map[string]any
	if err := json.Unmarshal(out, &roundTrip); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if roundTrip["cc"] != "b@example.com" || roundTrip["priority"] != 2.0 {
		t.Fatalf("extras dropped on re-serialization: %v", roundTrip)
	}
	if roundTrip["channel"] != "email" || roundTrip["to"] != "a@example.com" {
		t.Fatalf("known fields corrupted: %v", roundTrip)
	}
}

func TestIntentTarget_OmitsUnsetOptionalFields(t *testing.T) {
	out, err := json.Marshal(IntentTarget{Channel: "web"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(m) != 1 || m["channel"] != "web" {
		t.Fatalf("unexpected members: %v", m)
	}
}

func TestAuditEvidence_AlwaysEmitsToolAndResultRef(t *testing.T) {
	out, err := json.Marshal(AuditEvidence{})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := m["tool"]; !ok || v != nil {
		t.Fatalf("tool must be present and null: %v", m)
	}
	if v, ok := m["result_ref"]; !ok || v != nil {
		t.Fatalf("result_ref must be present and null: %v", m)
	}
}

func TestAuditEvidence_RoundTripWithExtras(t *testing.T) {
	wire := []byte(`{"tool":"smtp","result_ref":null,"message_id":"<x@example.com>"}`)

	var ev AuditEvidence
	if err := json.Unmarshal(wire, &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Tool == nil || *ev.Tool != "smtp" {
		t.Fatalf("tool: %v", ev.Tool)
	}
	if ev.ResultRef != nil {
		t.Fatalf("result_ref should be unset for null")
	}
	if ev.Extra["message_id"] != "<x@example.com>" {
		t.Fatalf("extra lost: %v", ev.Extra)
	}

	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if m["tool"] != "smtp" || m["message_id"] != "<x@example.com>" {
		t.Fatalf("round trip corrupted: %v", m)
	}
	if v, ok := m["result_ref"]; !ok || v != nil {
		t.Fatalf("result_ref must round-trip as null: %v", m)
	}
}
