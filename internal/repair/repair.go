// Package repair rescues malformed-but-salvageable JSON: single-quoted
// strings, trailing commas, unquoted keys and the other common pathologies of
// hand-edited or truncated pastes. It is a separate, opt-in step so the
// normalizer's own semantics stay untouched.
package repair

import (
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mcncl/jsonpeel/internal/errors"
)

// Repair returns a syntactically valid JSON document recovered from raw, or
// an error when the input is beyond saving.
func Repair(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.NewInputError("cannot repair empty input", errors.ErrEmptyInput)
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return "", errors.NewRepairError("could not repair malformed JSON", err)
	}
	return repaired, nil
}
