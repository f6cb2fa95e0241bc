package models

import (
	"bytes"
	"encoding/json"
)

// JSONValue is a generic type to represent any JSON value.
// Concrete types are: string, bool, nil, json.Number, *JSONObject, JSONArray.
type JSONValue interface{}

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// JSONObject represents a JSON object as an insertion-ordered mapping of
// strings to JSONValues. A plain map loses key order, and re-serializing a
// viewer's document must reproduce the order the user pasted.
type JSONObject struct {
	keys   []string
	values map[string]JSONValue
}

// NewJSONObject creates an empty ordered object.
func NewJSONObject() *JSONObject {
	return &JSONObject{values: make(map[string]JSONValue)}
}

// Set stores a value under key. A key set twice keeps its original position.
func (o *JSONObject) Set(key string, value JSONValue) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *JSONObject) Get(key string) (JSONValue, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *JSONObject) Keys() []string {
	return o.keys
}

// Len returns the number of entries.
func (o *JSONObject) Len() int {
	return len(o.keys)
}

// MarshalJSON writes the object's entries in insertion order.
func (o *JSONObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valueJSON, err := json.Marshal(o.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Outcome is the result of fully normalizing pasted text: the parsed value
// plus how many layers of string escaping were unwound to reach it.
type Outcome struct {
	Value       JSONValue
	EscapeDepth int
}

// Form labels what kind of input the classifier saw.
type Form string

const (
	// FormJSON means the input parsed directly without any unwrapping.
	FormJSON Form = "json"
	// FormEscaped means at least one layer of string escaping was unwound.
	FormEscaped Form = "escaped"
	// FormUnknown means no strategy produced a value.
	FormUnknown Form = "unknown"
)

// Classification is the classifier's answer for a piece of input.
type Classification struct {
	Form        Form `json:"form"`
	EscapeDepth int  `json:"escapeDepth"`
}
