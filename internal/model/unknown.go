package model

import (
	"bytes"
	"encoding/json"
)

// UnknownFields preserves JSON object keys this package does not model
// explicitly, in first-seen order, so re-encoding a decoded entry can
// round-trip bytes a newer or older schema version introduced without
// silently dropping them.
type UnknownFields struct {
	order []string
	vals  map[string]json.RawMessage
}

// Set records key with value, appending key to the order the first
// time it is seen and overwriting the value on subsequent calls.
func (u *UnknownFields) Set(key string, value json.RawMessage) {
	if u.vals == nil {
		u.vals = make(map[string]json.RawMessage)
	}
	if _, ok := u.vals[key]; !ok {
		u.order = append(u.order, key)
	}
	u.vals[key] = value
}

func (u *UnknownFields) Get(key string) (json.RawMessage, bool) {
	if u == nil || u.vals == nil {
		return nil, false
	}
	v, ok := u.vals[key]
	return v, ok
}

func (u *UnknownFields) Len() int {
	if u == nil {
		return 0
	}
	return len(u.order)
}

// Keys returns the keys in first-seen order.
func (u *UnknownFields) Keys() []string {
	if u == nil {
		return nil
	}
	return append([]string(nil), u.order...)
}

// WriteTo appends each unknown key/value pair to enc in order.
func (u *UnknownFields) WriteTo(enc map[string]json.RawMessage) {
	if u == nil {
		return
	}
	for _, k := range u.order {
		enc[k] = u.vals[k]
	}
}

// CollectUnknown scans raw for every key not in known and returns the
// UnknownFields bag, preserving the order keys appear in raw.
func CollectUnknown(raw json.RawMessage, known map[string]bool) (*UnknownFields, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	// encoding/json does not expose source order for map decoding, so
	// we re-scan the raw token stream to recover it.
	order, err := objectKeyOrder(raw)
	if err != nil {
		return nil, err
	}
	u := &UnknownFields{}
	for _, k := range order {
		if known[k] {
			continue
		}
		if v, ok := m[k]; ok {
			u.Set(k, v)
		}
	}
	return u, nil
}

// objectKeyOrder walks the raw JSON object's token stream to recover
// the original key order, since Go maps do not preserve it.
func objectKeyOrder(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil
	}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil
		}
		order = append(order, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return order, nil
}
