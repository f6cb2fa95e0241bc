// Package normalizer turns arbitrary pasted text into the JSON value it was
// meant to carry. Pasted payloads arrive in three shapes: plain JSON, JSON
// that was string-encoded one or more times (logs that JSON-encode their
// payloads), and raw escaped fragments missing their outer quotes. The
// normalizer unwinds all of them and reports how many escape layers it
// removed.
package normalizer

import (
	"encoding/json"
	"strings"

	"github.com/mcncl/jsonpeel/internal/errors"
	"github.com/mcncl/jsonpeel/internal/models"
	"github.com/mcncl/jsonpeel/internal/parser"
)

const (
	// DefaultMaxDepth caps how many unwrap iterations Normalize will attempt.
	DefaultMaxDepth = 25
	// DefaultProbeLimit caps the EscapeDepth probe's iterations.
	DefaultProbeLimit = 20
)

// crlfEscaper converts bare carriage returns and newlines to their escaped
// forms so a fragment can be wrapped in quotes and parsed as a string
// literal. Raw control characters are illegal inside JSON string literals.
var crlfEscaper = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// Normalize unwraps raw with the default iteration cap.
func Normalize(raw string) (models.Outcome, error) {
	return NormalizeDepth(raw, DefaultMaxDepth)
}

// NormalizeDepth repeatedly tries direct parsing, outer-quote stripping, and
// string-literal decoding until it lands on a value that is not another layer
// of string wrapping. The returned EscapeDepth counts how many string layers
// were unwound; quote stripping does not count as a layer.
//
// The loop is bounded by maxDepth and guarded by a visited set so adversarial
// input that oscillates or decodes to itself always terminates.
func NormalizeDepth(raw string, maxDepth int) (models.Outcome, error) {
	current := trimInput(raw)
	current = stripWrappingQuotes(current)

	depth := 0
	seen := make(map[string]struct{})
	var lastErr error

	for i := 0; i < maxDepth; i++ {
		if _, visited := seen[current]; visited {
			if lastErr == nil {
				lastErr = errors.ErrCycleDetected
			}
			break
		}
		seen[current] = struct{}{}

		value, err := parser.ParseString(current)
		if err == nil {
			str, isString := value.(string)
			if !isString {
				return models.Outcome{Value: value, EscapeDepth: depth}, nil
			}

			inner := strings.TrimSpace(str)
			if inner != "" && inner != current && descendable(inner) {
				// The string holds another JSON layer (or a quoteless
				// escaped fragment): step down into it.
				current = inner
				depth++
				continue
			}
			// The string is the payload itself.
			return models.Outcome{Value: str, EscapeDepth: depth}, nil
		}
		lastErr = err

		if stripped := stripWrappingQuotes(current); stripped != current {
			// Shedding ' or ` wrappers is repackaging, not unescaping, so
			// the depth counter stays put.
			current = stripped
			continue
		}

		if decoded, ok := decodeStringLiteral(current); ok && decoded != "" && decoded != current {
			current = decoded
			depth++
			continue
		}

		// No strategy advances.
		break
	}

	return models.Outcome{}, &errors.DepthExhaustedError{
		MaxDepthTried: maxDepth,
		EscapeDepth:   depth,
		Err:           lastErr,
	}
}

// Classify labels raw as json (parses directly), escaped (needed at least
// one unwrap), or unknown (nothing worked). It never returns an error:
// classification backs UI hinting and must be total.
func Classify(raw string) models.Classification {
	if strings.TrimSpace(raw) == "" {
		return models.Classification{Form: models.FormUnknown, EscapeDepth: 0}
	}

	outcome, err := Normalize(raw)
	if err != nil {
		return models.Classification{Form: models.FormUnknown, EscapeDepth: 0}
	}
	if outcome.EscapeDepth > 0 {
		return models.Classification{Form: models.FormEscaped, EscapeDepth: outcome.EscapeDepth}
	}
	return models.Classification{Form: models.FormJSON, EscapeDepth: 0}
}

// UnescapeOnce decodes exactly one level of escaping, for a "step down one
// level" action. Three rungs, first success wins:
//
//  1. raw is a JSON document whose value is a string
//  2. raw is the quoteless contents of a string literal: wrap verbatim and parse
//  3. raw is literal text: re-encode it as a string literal and decode it back
//
// Rung 3 always produces a valid literal, so for non-empty input the worst
// case is getting the text back unchanged.
func UnescapeOnce(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", errors.NewInputError("cannot unescape empty input", errors.ErrEmptyInput)
	}

	if value, err := parser.ParseString(raw); err == nil {
		if str, ok := value.(string); ok {
			return str, nil
		}
	}

	var out string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &out); err == nil {
		return out, nil
	}

	literal, err := json.Marshal(raw)
	if err != nil {
		return "", errors.NewUnescapeError("could not encode input as a JSON string literal", err)
	}
	if err := json.Unmarshal(literal, &out); err != nil {
		return "", errors.NewUnescapeError("could not decode re-encoded input", err)
	}
	return out, nil
}

// EscapeDepth reports how many string-encoding layers wrap the payload in
// raw, for UI hinting. It runs the same unwrap strategies as NormalizeDepth,
// in the same order, so the two agree wherever both produce an answer. On
// input it cannot decode it reports the depth reached so far rather than
// failing.
func EscapeDepth(raw string) int {
	return EscapeDepthLimit(raw, DefaultProbeLimit)
}

// EscapeDepthLimit is EscapeDepth with a caller-supplied iteration cap.
func EscapeDepthLimit(raw string, limit int) int {
	current := trimInput(raw)
	current = stripWrappingQuotes(current)
	if current == "" {
		return 0
	}

	depth := 0
	seen := make(map[string]struct{})

	for i := 0; i < limit; i++ {
		if _, visited := seen[current]; visited {
			break
		}
		seen[current] = struct{}{}

		if value, err := parser.ParseString(current); err == nil {
			str, isString := value.(string)
			if !isString {
				break
			}
			inner := strings.TrimSpace(str)
			if inner == "" || inner == current || !descendable(inner) {
				break
			}
			current = inner
			depth++
			continue
		}

		// Shedding ' or ` wrappers can expose further layers but does not
		// itself count as one, matching NormalizeDepth.
		if stripped := stripWrappingQuotes(current); stripped != current {
			current = stripped
			continue
		}

		if decoded, ok := decodeStringLiteral(current); ok && decoded != "" && decoded != current {
			current = decoded
			depth++
			continue
		}

		break
	}

	return depth
}

// descendable reports whether inner is worth stepping down into: it is
// either a JSON document in its own right or contains at least one
// recognizable backslash escape, marking it as a quoteless escaped payload.
func descendable(inner string) bool {
	return parser.Parses(inner) || hasEscapeSequence(inner)
}

// hasEscapeSequence reports whether s contains one of the backslash escapes
// legal in a JSON string literal.
func hasEscapeSequence(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '\\' {
			continue
		}
		switch s[i+1] {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			return true
		case 'u':
			if i+6 <= len(s) && isHex4(s[i+2:i+6]) {
				return true
			}
		}
	}
	return false
}

func isHex4(s string) bool {
	for i := 0; i < 4; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// decodeStringLiteral treats s as the contents of a JSON string literal:
// escape bare CR/LF, wrap in quotes, parse.
func decodeStringLiteral(s string) (string, bool) {
	quoted := `"` + crlfEscaper.Replace(s) + `"`
	var out string
	if err := json.Unmarshal([]byte(quoted), &out); err != nil {
		return "", false
	}
	return out, true
}

// trimInput drops a leading byte-order-mark and surrounding whitespace.
func trimInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.TrimSpace(s)
}

// stripWrappingQuotes removes matched single-quote or backtick wrappers,
// re-trimming after each layer, while doing so changes the string. Payloads
// copied out of script or log output often arrive wrapped this way.
func stripWrappingQuotes(s string) string {
	for {
		if len(s) < 2 {
			return s
		}
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '\'' && first != '`') {
			return s
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
}
