package es

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// EncodeJSON is the canonical encoder for payloads, metadata, stream
// metadata, projection state and projection positions.
//
// It differs from a plain json.Marshal in two ways:
//   - HTML characters (<, >, &) and slashes are not escaped
//   - float64 values without a fractional part keep a zero fraction,
//     so 2.0 encodes as "2.0" and survives a decode/encode round trip
//
// json.Number values pass through verbatim.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(preserveZeroFraction(v)); err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	// Encoder appends a newline after every value
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeJSON decodes a JSON object into a map.
// Numbers decode as json.Number so they re-encode bit-identically.
func DecodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	return m, nil
}

// preserveZeroFraction rewrites integral float64 values into json.Number
// with one decimal place. Maps and slices are walked recursively; all other
// values are returned as-is.
func preserveZeroFraction(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && !math.IsNaN(val) {
			return json.Number(strconv.FormatFloat(val, 'f', 1, 64))
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = preserveZeroFraction(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = preserveZeroFraction(item)
		}
		return out
	default:
		return v
	}
}
