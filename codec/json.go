package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option and serves as the reference implementation
// for decode behavior. Pack documents are plain JSON objects, so any codec
// that matches encoding/json semantics can stand in.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used by the library unless overridden via options.
//
// Large word chunks dominate decode time, so the default favors throughput
// over zero dependencies.
var Default Codec = GoJSON{}
