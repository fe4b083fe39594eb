// Package schema validates DCP artifacts against the published DCP-01/02/03
// JSON Schema documents.
//
// The schema documents are embedded and compiled once; this package defines
// no schema grammar of its own and validates nothing beyond the published
// documents. Structural validation is a collaborator of verification, not a
// substitute for it: a schema-valid bundle can still fail hash or signature
// checks.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed v1/*.schema.json
var schemaFS embed.FS

const idBase = "https://dcp-ai.org/schemas/v1/"

// Result is the outcome of a structural validation.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func load() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020

		names, err := fs.Glob(schemaFS, "v1/*.schema.json")
		if err != nil {
			compileErr = err
			return
		}
		sort.Strings(names)
		for _, name := range names {
			doc, err := schemaFS.ReadFile(name)
			if err != nil {
				compileErr = err
				return
			}
			id := idBase + strings.TrimPrefix(name, "v1/")
			if err := c.AddResource(id, strings.NewReader(string(doc))); err != nil {
				compileErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			short := strings.TrimSuffix(strings.TrimPrefix(name, "v1/"), ".schema.json")
			sch, err := c.Compile(idBase + strings.TrimPrefix(name, "v1/"))
			if err != nil {
				compileErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			compiled[short] = sch
		}
	})
	return compiled, compileErr
}

// Names lists the available schema names, sorted.
func Names() []string {
	schemas, err := load()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(schemas))
	for name := range schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks a document against a named DCP schema
// (e.g. "intent", "audit_entry", "signed_bundle").
//
// doc may be a decoded JSON value or any JSON-encodable Go value; it is
// normalized through a JSON round-trip before validation.
func Validate(schemaName string, doc any) Result {
	schemas, err := load()
	if err != nil {
		return Result{Valid: false, Errors: []string{"schema compiler: " + err.Error()}}
	}
	sch, ok := schemas[schemaName]
	if !ok {
		return Result{Valid: false, Errors: []string{"schema not found: " + schemaName}}
	}

	v, err := normalize(doc)
	if err != nil {
		return Result{Valid: false, Errors: []string{"document is not JSON-encodable: " + err.Error()}}
	}

	if err := sch.Validate(v); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return Result{Valid: false, Errors: flatten(ve)}
		}
		return Result{Valid: false, Errors: []string{err.Error()}}
	}
	return Result{Valid: true}
}

// ValidateBundle validates every artifact of a citizenship bundle and each
// audit entry, aggregating all errors instead of stopping at the first.
func ValidateBundle(bundleDoc any) Result {
	v, err := normalize(bundleDoc)
	if err != nil {
		return Result{Valid: false, Errors: []string{"bundle is not JSON-encodable: " + err.Error()}}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Result{Valid: false, Errors: []string{"bundle must be a JSON object"}}
	}

	var errs []string
	for _, key := range []string{"human_binding_record", "agent_passport", "intent", "policy_decision"} {
		obj, ok := m[key]
		if !ok || obj == nil {
			errs = append(errs, key+": missing")
			continue
		}
		res := Validate(key, obj)
		for _, e := range res.Errors {
			errs = append(errs, key+": "+e)
		}
	}

	entries, ok := m["audit_entries"].([]any)
	if !ok || len(entries) == 0 {
		errs = append(errs, "audit_entries must be a non-empty array")
	} else {
		for i, entry := range entries {
			res := Validate("audit_entry", entry)
			for _, e := range res.Errors {
				errs = append(errs, fmt.Sprintf("audit_entries[%d]: %s", i, e))
			}
		}
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{Valid: true}
}

func normalize(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// flatten renders the leaf causes of a validation error as "location message"
// lines, mirroring the diagnostic form of the reference validator.
func flatten(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+" "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
