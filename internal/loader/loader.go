// Package loader reads the boundary formats: newline-delimited JSON
// eval records and the agent results file. Unknown fields are preserved
// rather than rejected so test cases can carry forward-compatible data.
package loader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/touchstone-evals/touchstone/internal/domain"
)

// Package-level validator instance for structural record validation.
var validate = validator.New()

// structuralError converts validator field errors into a per-entity
// ValidationError so callers see which fields of which record failed.
func structuralError(entity string, err error) *domain.ValidationError {
	verr := domain.NewValidationError(entity)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.AddError(fmt.Sprintf("field %s failed on %q", fe.Field(), fe.Tag()))
		}
	} else {
		verr.AddError(err.Error())
	}
	return verr
}

// specKnownFields are the EvalSpec top-level keys the engine interprets.
// Anything else lands in Extra.
var specKnownFields = map[string]bool{
	"task_id":             true,
	"persona":             true,
	"lifecycle_stage":     true,
	"consent":             true,
	"channel_preferences": true,
	"input":               true,
	"assertions":          true,
	"thresholds":          true,
	"expected":            true,
}

var inputKnownFields = map[string]bool{
	"language": true,
	"profile":  true,
	"unit":     true,
}

// maxLineBytes bounds a single JSONL record. Message bodies are short;
// a megabyte of record is a corrupt file, not a test case.
const maxLineBytes = 1 << 20

// ReadSpecs reads newline-delimited EvalSpec records. Blank lines are
// skipped. A record without a task_id or with a duplicate one is a
// fatal error naming the offending line; malformed JSON likewise.
func ReadSpecs(r io.Reader) ([]*domain.EvalSpec, error) {
	var specs []*domain.EvalSpec
	seen := make(map[string]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		spec, err := decodeSpec([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if prev, ok := seen[spec.TaskID]; ok {
			return nil, fmt.Errorf("line %d: task %q already declared on line %d: %w",
				lineNo, spec.TaskID, prev, domain.ErrDuplicateTaskID)
		}
		seen[spec.TaskID] = lineNo
		specs = append(specs, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read eval records: %w", err)
	}

	return specs, nil
}

// LoadSpecs reads eval records from a JSONL file.
func LoadSpecs(path string) ([]*domain.EvalSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open eval records: %w", err)
	}
	defer f.Close()

	specs, err := ReadSpecs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// decodeSpec unmarshals one record, captures unknown fields into Extra,
// and normalizes legacy consent keys.
func decodeSpec(data []byte) (*domain.EvalSpec, error) {
	var spec domain.EvalSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("malformed eval record: %w", err)
	}

	if err := validate.Struct(&spec); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMissingTaskID, structuralError("eval record", err))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed eval record: %w", err)
	}
	for key, value := range raw {
		if !specKnownFields[key] {
			if spec.Extra == nil {
				spec.Extra = make(map[string]json.RawMessage)
			}
			spec.Extra[key] = value
		}
	}

	if rawInput, ok := raw["input"]; ok {
		var inputFields map[string]json.RawMessage
		if err := json.Unmarshal(rawInput, &inputFields); err == nil {
			for key, value := range inputFields {
				if !inputKnownFields[key] {
					if spec.Input.Extra == nil {
						spec.Input.Extra = make(map[string]json.RawMessage)
					}
					spec.Input.Extra[key] = value
				}
			}
		}
	}

	spec.Consent = normalizeConsent(spec.Consent)
	return &spec, nil
}

// normalizeConsent maps legacy "<channel>_opt_in" keys onto plain
// channel names so the rest of the engine only sees one shape.
func normalizeConsent(consent map[string]bool) map[string]bool {
	if len(consent) == 0 {
		return consent
	}
	normalized := make(map[string]bool, len(consent))
	for key, optedIn := range consent {
		normalized[strings.TrimSuffix(key, "_opt_in")] = optedIn
	}
	return normalized
}
