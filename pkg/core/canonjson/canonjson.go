// Package canonjson produces the canonical JSON form used for
// fingerprinting: keys sorted lexicographically, numbers emitted
// without trailing zeros, no insignificant whitespace.
package canonjson

import "encoding/json"

// Marshal serializes v to canonical JSON. It round-trips v through
// map[string]interface{} so that encoding/json's own (already
// lexicographic) map-key ordering and minimal number formatting apply
// uniformly, regardless of whether v started as a struct or a map.
func Marshal(v interface{}) ([]byte, error) {
	first, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(first, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
