package formatter

import (
	"encoding/json"
	"strings"

	"github.com/mcncl/jsonpeel/internal/errors"
	"github.com/mcncl/jsonpeel/internal/models"
)

// Formatter renders a parsed JSON value back to text. Object key order is
// preserved by the model's order-aware marshaling.
type Formatter struct {
	// Compact renders without any whitespace.
	Compact bool
	// Indent is the per-level indentation for pretty output.
	Indent string
}

// NewFormatter creates a Formatter with two-space pretty printing.
func NewFormatter() *Formatter {
	return &Formatter{Indent: "  "}
}

// Format renders value as a JSON document.
func (f *Formatter) Format(value models.JSONValue) (string, error) {
	var out []byte
	var err error
	if f.Compact {
		out, err = json.Marshal(value)
	} else {
		indent := f.Indent
		if indent == "" {
			indent = "  "
		}
		out, err = json.MarshalIndent(value, "", indent)
	}
	if err != nil {
		return "", errors.NewOutputError("failed to render JSON value", err)
	}
	return string(out), nil
}

// FormatString is a convenience for rendering with a trailing newline
// stripped, ready for terminal output.
func (f *Formatter) FormatString(value models.JSONValue) (string, error) {
	s, err := f.Format(value)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(s, "\n"), nil
}
