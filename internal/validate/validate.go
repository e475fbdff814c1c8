// Package validate checks HTTP request bodies against embedded JSON schemas
// before they are decoded.
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/sells-group/dealboard/internal/model"
)

// Schema names.
const (
	Estimate    = "estimate"
	Rank        = "rank"
	AI          = "ai"
	Preferences = "preferences"
	Filter      = "filter"
	Property    = "property"
)

const baseURL = "file:///dealboard/schemas/"

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = compileAll()
	})
	return compiled, compileErr
}

func compileAll() (map[string]*jsonschema.Schema, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, eris.Wrap(err, "validate: read schemas")
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat = true
	var names []string
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "validate: read %s", e.Name())
		}
		if err := c.AddResource(baseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, eris.Wrapf(err, "validate: add %s", e.Name())
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}

	out := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := c.Compile(baseURL + name + ".json")
		if err != nil {
			return nil, eris.Wrapf(err, "validate: compile %s", name)
		}
		out[name] = s
	}
	return out, nil
}

// Check validates body against the named schema. Schema violations and
// malformed JSON come back as *model.ValidationError.
func Check(name string, body []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	s, ok := all[name]
	if !ok {
		return eris.Errorf("validate: unknown schema %q", name)
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return &model.ValidationError{Field: "body", Message: "malformed JSON: " + err.Error()}
	}
	if err := s.Validate(v); err != nil {
		return toValidationError(err)
	}
	return nil
}

// Decode validates body against the named schema and then unmarshals it into dst.
func Decode(name string, body []byte, dst any) error {
	if err := Check(name, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &model.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

// toValidationError reports the deepest failing keyword, which names the
// offending field more precisely than the top-level summary.
func toValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return eris.Wrap(err, "validate")
	}
	leaf := deepest(ve)
	return &model.ValidationError{Field: fieldName(leaf.InstanceLocation), Message: leaf.Message}
}

// deepest returns the leaf cause with the longest instance path; ties keep
// the first. Under anyOf this skips the shallow "expected null" branch.
func deepest(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return ve
	}
	best := deepest(ve.Causes[0])
	for _, c := range ve.Causes[1:] {
		if leaf := deepest(c); len(leaf.InstanceLocation) > len(best.InstanceLocation) {
			best = leaf
		}
	}
	return best
}

func fieldName(pointer string) string {
	field := strings.Trim(pointer, "/")
	if field == "" {
		return "body"
	}
	return strings.ReplaceAll(field, "/", ".")
}
