package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonpeel/internal/errors"
	"github.com/mcncl/jsonpeel/internal/models"
)

// wrap string-encodes s n times, the way a logger that JSON-encodes its
// payloads would.
func wrap(t *testing.T, s string, n int) string {
	t.Helper()
	for i := 0; i < n; i++ {
		encoded, err := json.Marshal(s)
		require.NoError(t, err)
		s = string(encoded)
	}
	return s
}

func simpleObject() *models.JSONObject {
	obj := models.NewJSONObject()
	obj.Set("a", json.Number("1"))
	return obj
}

func TestNormalize_PlainJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.JSONValue
	}{
		{"object", `{"a":1}`, simpleObject()},
		{"array", `[1,2]`, models.JSONArray{json.Number("1"), json.Number("2")}},
		{"number", `42`, json.Number("42")},
		{"boolean", `true`, true},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome.Value)
			assert.Equal(t, 0, outcome.EscapeDepth)
		})
	}
}

func TestNormalize_EscapedOnce(t *testing.T) {
	outcome, err := Normalize(`"{\"a\":1}"`)
	require.NoError(t, err)
	assert.Equal(t, simpleObject(), outcome.Value)
	assert.Equal(t, 1, outcome.EscapeDepth)
}

func TestNormalize_EscapeRoundTrip(t *testing.T) {
	doc := `{"a":1}`
	for depth := 0; depth <= 4; depth++ {
		input := wrap(t, doc, depth)
		outcome, err := Normalize(input)
		require.NoError(t, err, "depth %d input %q", depth, input)
		assert.Equal(t, simpleObject(), outcome.Value, "depth %d", depth)
		assert.Equal(t, depth, outcome.EscapeDepth, "depth %d", depth)
	}
}

func TestNormalize_UnquotedEscapedFragment(t *testing.T) {
	// An escaped payload that lost its outer quotes on the way through a log
	outcome, err := Normalize(`{\"a\":1}`)
	require.NoError(t, err)
	assert.Equal(t, simpleObject(), outcome.Value)
	assert.GreaterOrEqual(t, outcome.EscapeDepth, 1)
}

func TestNormalize_PlainStringPreserved(t *testing.T) {
	outcome, err := Normalize(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", outcome.Value)
	assert.Equal(t, 0, outcome.EscapeDepth)
}

func TestNormalize_StringWrappedString(t *testing.T) {
	outcome, err := Normalize(`"\"hello\""`)
	require.NoError(t, err)
	assert.Equal(t, "hello", outcome.Value)
	assert.Equal(t, 1, outcome.EscapeDepth)
}

func TestNormalize_WrappingQuoteCharacters(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single quotes", `'{"a":1}'`},
		{"backticks", "`{\"a\":1}`"},
		{"single quotes with whitespace", `  '{"a":1}'  `},
		{"nested wrappers", "`'{\"a\":1}'`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, simpleObject(), outcome.Value)
			// Shedding wrapper characters is not unescaping
			assert.Equal(t, 0, outcome.EscapeDepth)
		})
	}
}

func TestNormalize_ByteOrderMark(t *testing.T) {
	outcome, err := Normalize("\uFEFF {\"a\":1}")
	require.NoError(t, err)
	assert.Equal(t, simpleObject(), outcome.Value)
	assert.Equal(t, 0, outcome.EscapeDepth)
}

func TestNormalize_NumberInsideString(t *testing.T) {
	// A string whose trimmed contents parse as JSON is one wrap layer
	outcome, err := Normalize(`" 42 "`)
	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), outcome.Value)
	assert.Equal(t, 1, outcome.EscapeDepth)
}

func TestNormalize_GarbageFails(t *testing.T) {
	_, err := Normalize("definitely not json")
	require.Error(t, err)

	var depthErr *errors.DepthExhaustedError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, DefaultMaxDepth, depthErr.MaxDepthTried)
	assert.Equal(t, 0, depthErr.EscapeDepth)
	assert.Error(t, depthErr.Err, "last parse error should be attached as the cause")
}

func TestNormalize_TerminatesWithoutConsumingBudget(t *testing.T) {
	// "abc" decodes to itself under the string-literal rung, so the loop
	// must halt on the no-progress/cycle guard, not by counting down a huge
	// iteration budget.
	_, err := NormalizeDepth("abc", 1<<20)
	require.Error(t, err)

	var depthErr *errors.DepthExhaustedError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, 0, depthErr.EscapeDepth)
}

func TestNormalize_MultipleDocumentsFail(t *testing.T) {
	_, err := Normalize(`{"a":1} {"b":2}`)
	require.Error(t, err)
}

func TestNormalize_EmptyInput(t *testing.T) {
	_, err := Normalize("")
	require.Error(t, err)

	_, err = Normalize("   \n\t ")
	require.Error(t, err)
}

func TestClassify_CleanJSONIdempotence(t *testing.T) {
	docs := []string{
		`{"a":1}`,
		`[1,2,3]`,
		`"hello"`,
		`42`,
		`true`,
		`null`,
		`{"nested":{"deep":[{"x":null}]}}`,
	}

	for _, doc := range docs {
		c := Classify(doc)
		assert.Equal(t, models.FormJSON, c.Form, "doc %q", doc)
		assert.Equal(t, 0, c.EscapeDepth, "doc %q", doc)
	}
}

func TestClassify_Escaped(t *testing.T) {
	for depth := 1; depth <= 3; depth++ {
		input := wrap(t, `{"a":1}`, depth)
		c := Classify(input)
		assert.Equal(t, models.FormEscaped, c.Form, "depth %d", depth)
		assert.Equal(t, depth, c.EscapeDepth, "depth %d", depth)
	}
}

func TestClassify_NeverThrows(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\t\n",
		"not json",
		`{"truncated":`,
		`{\"a\":`,
		"\\",
		"\x00\x01\x02",
		"\uFEFF",
		`'''`,
		"```",
	}

	for _, input := range inputs {
		c := Classify(input)
		assert.Contains(t, []models.Form{models.FormJSON, models.FormEscaped, models.FormUnknown}, c.Form, "input %q", input)
		if c.Form == models.FormUnknown {
			assert.Equal(t, 0, c.EscapeDepth, "input %q", input)
		}
	}
}

func TestUnescapeOnce_JSONStringDocument(t *testing.T) {
	decoded, err := UnescapeOnce(`"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)
}

func TestUnescapeOnce_QuotelessFragment(t *testing.T) {
	decoded, err := UnescapeOnce(`{\"a\":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, decoded)
}

func TestUnescapeOnce_PlainTextUnchanged(t *testing.T) {
	input := `Hello "World"`
	decoded, err := UnescapeOnce(input)
	require.NoError(t, err)
	assert.Equal(t, input, decoded)
}

func TestUnescapeOnce_NonStringDocumentUnchanged(t *testing.T) {
	// A document that is not a string has no layer to peel; the identity
	// fallback hands the text back.
	input := `{"a":1}`
	decoded, err := UnescapeOnce(input)
	require.NoError(t, err)
	assert.Equal(t, input, decoded)
}

func TestUnescapeOnce_MultilineTextUnchanged(t *testing.T) {
	input := "line one\nline two\r\n\tline three"
	decoded, err := UnescapeOnce(input)
	require.NoError(t, err)
	assert.Equal(t, input, decoded)
}

func TestUnescapeOnce_EmptyInput(t *testing.T) {
	_, err := UnescapeOnce("")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)

	_, err = UnescapeOnce("   ")
	require.Error(t, err)
}

func TestUnescapeOnce_SteppingDownLevels(t *testing.T) {
	// Each call peels exactly one of the three layers
	input := wrap(t, `{"a":1}`, 3)

	one, err := UnescapeOnce(input)
	require.NoError(t, err)
	assert.Equal(t, wrap(t, `{"a":1}`, 2), one)

	two, err := UnescapeOnce(one)
	require.NoError(t, err)
	assert.Equal(t, wrap(t, `{"a":1}`, 1), two)

	three, err := UnescapeOnce(two)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, three)
}

func TestEscapeDepth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"plain object", `{"a":1}`, 0},
		{"plain string", `"hello"`, 0},
		{"wrapped once", wrap(t, `{"a":1}`, 1), 1},
		{"wrapped twice", wrap(t, `{"a":1}`, 2), 2},
		{"wrapped three times", wrap(t, `{"a":1}`, 3), 3},
		{"quoteless fragment", `{\"a\":1}`, 1},
		{"garbage", "not json", 0},
		{"empty", "", 0},
		{"whitespace", "  \n ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeDepth(tt.input))
		})
	}
}

func TestEscapeDepth_WrapperCharactersAndBOM(t *testing.T) {
	// Wrapper shedding counts for zero depth but must still expose the
	// escaped payload underneath to the probe.
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"single-quoted escaped payload", `'` + wrap(t, `{"a":1}`, 1) + `'`, 1},
		{"backticked twice-escaped payload", "`" + wrap(t, `{"a":1}`, 2) + "`", 2},
		{"single-quoted plain object", `'{"a":1}'`, 0},
		{"BOM-prefixed escaped payload", "\uFEFF" + wrap(t, `{"a":1}`, 1), 1},
		{"BOM-prefixed quoted payload", "\uFEFF '" + wrap(t, `{"a":1}`, 1) + "'", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeDepth(tt.input))
		})
	}
}

func TestEscapeDepthLimit_CapsIterations(t *testing.T) {
	input := wrap(t, `{"a":1}`, 4)
	assert.Equal(t, 2, EscapeDepthLimit(input, 2))
	assert.Equal(t, 4, EscapeDepthLimit(input, 10))
}

func TestEscapeDepth_AgreesWithNormalize(t *testing.T) {
	inputs := []string{
		`{"a":1}`,
		`[1,2,3]`,
		`"hello"`,
		`42`,
		wrap(t, `{"a":1}`, 1),
		wrap(t, `{"a":1}`, 2),
		wrap(t, `{"a":1}`, 3),
		wrap(t, `[true,null]`, 2),
		wrap(t, `"hello"`, 2),
		`{\"a\":1}`,
		`" 42 "`,
		`'` + wrap(t, `{"a":1}`, 1) + `'`,
		"`" + wrap(t, `{"a":1}`, 2) + "`",
		"\uFEFF" + wrap(t, `{"a":1}`, 1),
		"'{\"a\":1}'",
	}

	for _, input := range inputs {
		outcome, err := Normalize(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, outcome.EscapeDepth, EscapeDepth(input), "input %q", input)
	}
}

func TestHasEscapeSequence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"escaped quote", `{\"a\":1}`, true},
		{"escaped backslash", `a\\b`, true},
		{"escaped newline", `line\nline`, true},
		{"escaped tab", `col\tcol`, true},
		{"escaped slash", `a\/b`, true},
		{"unicode escape", `snowman \u2603`, true},
		{"incomplete unicode escape", `\u26`, false},
		{"invalid unicode hex", `\uZZZZ`, false},
		{"no escapes", "plain text", false},
		{"lone trailing backslash", `text\`, false},
		{"unknown escape", `\q`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hasEscapeSequence(tt.input))
		})
	}
}

func TestStripWrappingQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single quotes", `'abc'`, "abc"},
		{"backticks", "`abc`", "abc"},
		{"repeated layers", "`'abc'`", "abc"},
		{"inner whitespace trimmed", "' abc '", "abc"},
		{"mismatched", "'abc`", "'abc`"},
		{"double quotes untouched", `"abc"`, `"abc"`},
		{"single character", "'", "'"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripWrappingQuotes(tt.input))
		})
	}
}
