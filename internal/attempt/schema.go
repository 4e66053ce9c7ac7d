package attempt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const submissionSchemaURL = "schema://attempt-submission.json"

// submissionSchema describes one attempt submission as accepted by the
// record command and the HTTP surface.
var submissionSchema = map[string]any{
	"$schema":  "https://json-schema.org/draft/2020-12/schema",
	"type":     "object",
	"required": []any{"studentId", "exerciseId", "conceptId", "isCorrect"},
	"properties": map[string]any{
		"studentId":  map[string]any{"type": "string", "minLength": 1},
		"exerciseId": map[string]any{"type": "string", "minLength": 1},
		"conceptId":  map[string]any{"type": "string", "minLength": 1},
		"answer": map[string]any{
			"oneOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				map[string]any{"type": "null"},
			},
		},
		"isCorrect":        map[string]any{"type": "boolean"},
		"score":            map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"timeTakenSeconds": map[string]any{"type": "integer", "minimum": 0},
		"hintsUsed":        map[string]any{"type": "integer", "minimum": 0},
		"retriesCount":     map[string]any{"type": "integer", "minimum": 0},
		"mode":             map[string]any{"enum": []any{string(ModeLearning), string(ModeExam)}},
		"skillTags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": []any{"string", "null"}},
		},
	},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a parsed JSON document, not Go literals.
		b, err := json.Marshal(submissionSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(submissionSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(submissionSchemaURL)
	})
	return compiledSchema, compileErr
}

// DecodeSubmissions parses raw JSON holding either a single submission
// object or an array of them. Every element is checked against the
// submission schema before decoding.
func DecodeSubmissions(raw []byte) ([]Submission, error) {
	sch, err := schema()
	if err != nil {
		return nil, fmt.Errorf("compile submission schema: %w", err)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrInvalid, err)
	}

	var elems []any
	switch v := parsed.(type) {
	case []any:
		elems = v
	default:
		elems = []any{v}
	}

	subs := make([]Submission, 0, len(elems))
	for i, elem := range elems {
		if err := sch.Validate(elem); err != nil {
			return nil, fmt.Errorf("%w: submission %d: %v", ErrInvalid, i, err)
		}
		b, err := json.Marshal(elem)
		if err != nil {
			return nil, fmt.Errorf("re-encode submission %d: %w", i, err)
		}
		var s Submission
		dec := json.NewDecoder(bytes.NewReader(b))
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("%w: submission %d: %v", ErrInvalid, i, err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}
