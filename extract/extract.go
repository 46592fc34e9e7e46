package extract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/stratusdb/leadflow/core"
)

var (
	// ErrNoJSONObject indicates the text contains no balanced, parseable
	// JSON object.
	ErrNoJSONObject = errors.New("no JSON object found in text")

	// ErrSchema indicates a JSON object was found but its fields do not
	// satisfy the expected result schema.
	ErrSchema = errors.New("extracted object violates result schema")
)

// PassThrough is the extraction policy for stages whose output is plain
// prose. It returns the text unchanged and fails only on empty output.
func PassThrough(text string) (any, error) {
	if text == "" {
		return nil, errors.New("model produced empty output")
	}

	return text, nil
}

// FirstJSONObject scans text for the first balanced top-level JSON object
// and returns it verbatim. The scanner tracks brace depth and is aware of
// string literals and escape sequences, so braces inside string values do
// not confuse it. Candidates that balance but fail to parse as JSON are
// skipped and the scan continues.
func FirstJSONObject(text string) (string, error) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}

		end, ok := scanObject(text, start)
		if !ok {
			continue
		}

		candidate := text[start : end+1]
		if gjson.Valid(candidate) {
			return candidate, nil
		}
	}

	return "", ErrNoJSONObject
}

// scanObject walks text from the opening brace at start and returns the index
// of the matching closing brace.
func scanObject(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}

// ScoreResult extracts a qualification verdict from model output. The text
// may surround the JSON object with prose. Field types are probed before
// decoding so a wrong-typed field is reported as a schema violation rather
// than a decode failure, and the decoded result is validated against the
// verdict invariants.
func ScoreResult(text string) (*core.ScoreResult, error) {
	raw, err := FirstJSONObject(text)
	if err != nil {
		return nil, err
	}

	if err := probeScoreFields(raw); err != nil {
		return nil, err
	}

	var result core.ScoreResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return &result, nil
}

// probeScoreFields checks presence and JSON types of the verdict fields.
func probeScoreFields(raw string) error {
	score := gjson.Get(raw, "score")
	if !score.Exists() || score.Type != gjson.Number {
		return fmt.Errorf("%w: field score must be a number", ErrSchema)
	}
	if score.Num != float64(int(score.Num)) {
		return fmt.Errorf("%w: field score must be an integer", ErrSchema)
	}

	nextStep := gjson.Get(raw, "next_step")
	if !nextStep.Exists() || nextStep.Type != gjson.String {
		return fmt.Errorf("%w: field next_step must be a string", ErrSchema)
	}

	points := gjson.Get(raw, "talking_points")
	if !points.Exists() || !points.IsArray() {
		return fmt.Errorf("%w: field talking_points must be an array", ErrSchema)
	}
	for _, p := range points.Array() {
		if p.Type != gjson.String {
			return fmt.Errorf("%w: talking_points entries must be strings", ErrSchema)
		}
	}

	return nil
}
