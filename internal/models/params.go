package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Params is a free-form parameter bag attached to triggers and actions.
// Values are whatever JSON allows: strings, numbers, booleans, lists.
// The bag is opaque to the catalog; only the tanabota engine interprets it.
type Params map[string]any

// MarshalText serializes the bag to its canonical JSON form for storage.
// A nil bag serializes to "{}" so stored columns are never NULL.
func (p Params) MarshalText() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// UnmarshalText parses a stored JSON bag. Numbers are decoded as
// json.Number to keep integer yen values exact.
func (p *Params) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*p = Params{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	m := map[string]any{}
	if err := dec.Decode(&m); err != nil {
		return fmt.Errorf("invalid parameter bag: %w", err)
	}
	*p = m
	return nil
}

// Clone returns a shallow copy of the bag. Ledger log rows snapshot their
// action params through this so later rule edits cannot alias the history.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
