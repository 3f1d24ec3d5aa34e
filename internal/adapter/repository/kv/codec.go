package kv

import "encoding/json"

// The repositories persist JSON. The values are small and the store is the
// source of truth, so readability wins over a binary codec.

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshal(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}
