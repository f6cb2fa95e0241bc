package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors"

	"github.com/mcncl/jsonpeel/internal/errors"
	"github.com/mcncl/jsonpeel/internal/models"
)

// Parse decodes exactly one JSON document from reader into the model types.
// Objects keep their key order, and numbers are decoded as json.Number so no
// precision is lost between parse and re-render.
func Parse(reader io.Reader) (models.JSONValue, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()

	value, err := decodeValue(decoder)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.NewParsingError("unexpected end of JSON input", errors.ErrInvalidJSON)
		}
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return nil, errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d: %v", syntaxError.Offset, syntaxError),
				errors.ErrInvalidJSON,
			)
		}
		return nil, errors.NewParsingError("failed to decode JSON", err)
	}

	// Anything but trailing whitespace after the first document is an error.
	// More() alone misses stray closing delimiters, so pull one more token
	// and require EOF.
	if decoder.More() {
		return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	}
	if _, err := decoder.Token(); !stderrors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		}
		return nil, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	return value, nil
}

// decodeValue reads one value from the decoder's token stream.
func decodeValue(decoder *json.Decoder) (models.JSONValue, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch t := token.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		}
		// The decoder only hands out ']' or '}' here on malformed input it
		// has already accepted a prefix of; treat it as a syntax problem.
		return nil, fmt.Errorf("unexpected delimiter %q", t.String())
	default:
		// string, bool, json.Number or nil
		return t, nil
	}
}

func decodeObject(decoder *json.Decoder) (*models.JSONObject, error) {
	object := models.NewJSONObject()
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyToken)
		}
		value, err := decodeValue(decoder)
		if err != nil {
			return nil, err
		}
		object.Set(key, value)
	}
	// Consume the closing '}'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return object, nil
}

func decodeArray(decoder *json.Decoder) (models.JSONArray, error) {
	array := models.JSONArray{}
	for decoder.More() {
		value, err := decodeValue(decoder)
		if err != nil {
			return nil, err
		}
		array = append(array, value)
	}
	// Consume the closing ']'.
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return array, nil
}

// ParseString parses a single JSON document from a string.
func ParseString(jsonString string) (models.JSONValue, error) {
	if strings.TrimSpace(jsonString) == "" {
		return nil, errors.NewInputError("input string is empty or consists only of whitespace", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// Parses reports whether s is a single well-formed JSON document.
func Parses(s string) bool {
	_, err := ParseString(s)
	return err == nil
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.JSONValue, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file)
}
