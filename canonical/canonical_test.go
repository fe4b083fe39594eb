package canonical

import (
	"errors"
	"math"
	"testing"
)

func TestMarshal_SortsKeysAndStripsWhitespace(t *testing.T) {
	got, err := Marshal(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"alpha":2,"mid":3,"zeta":1}`
	if string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestMarshal_StructAndMapAgree(t *testing.T) {
	type doc struct {
		B int    `json:"b"`
		A string `json:"a"`
	}
	fromStruct, err := Marshal(doc{B: 2, A: "x"})
	if err != nil {
		t.Fatalf("Marshal struct: %v", err)
	}
	fromMap, err := Marshal(map[string]any{"a": "x", "b": 2})
	if err != nil {
		t.Fatalf("Marshal map: %v", err)
	}
	if string(fromStruct) != string(fromMap) {
		t.Fatalf("struct %s != map %s", fromStruct, fromMap)
	}
}

func TestMarshal_NestedOrdering(t *testing.T) {
	got, err := Marshal(map[string]any{
		"outer": map[string]any{"y": []any{map[string]any{"q": 1, "p": 2}}, "x": 0},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"outer":{"x":0,"y":[{"p":2,"q":1}]}}`
	if string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestMarshal_IntegralFloatsLoseTheirPoint(t *testing.T) {
	got, err := Marshal(map[string]any{"n": 10.0, "m": 0.5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"m":0.5,"n":10}`
	if string(got) != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestTransform_EquivalentRenderingsConverge(t *testing.T) {
	a, err := Transform([]byte(`{ "b" : 2 , "a" : "café" }`))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	b, err := Transform([]byte(`{"a":"café","b":2}`))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("renderings diverge: %s vs %s", a, b)
	}
}

func TestTransform_RejectsNonJSON(t *testing.T) {
	if _, err := Transform([]byte("not json at all")); err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
	var ee *EncodingError
	_, err := Transform([]byte(`{"unterminated": `))
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EncodingError, got %T (%v)", err, err)
	}
	if ee.Unwrap() == nil {
		t.Fatalf("expected wrapped cause")
	}
}

func TestMarshal_RejectsNonFiniteNumbers(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Marshal(map[string]any{"x": v}); err == nil {
			t.Fatalf("expected error for %v", v)
		}
	}
}

func TestMarshal_RejectsUnencodableValues(t *testing.T) {
	_, err := Marshal(map[string]any{"ch": make(chan int)})
	var ee *EncodingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EncodingError, got %T (%v)", err, err)
	}
}
