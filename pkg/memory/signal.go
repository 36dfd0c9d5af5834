package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Signal is one upstream signal payload. The ledger never interprets it and
// stores the JSON value as received.
type Signal json.RawMessage

// NewSignal encodes v as a signal payload.
func NewSignal(v any) (Signal, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("memory: encode signal: %w", err)
	}
	return Signal(data), nil
}

// MarshalJSON implements json.Marshaler.
func (s Signal) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signal) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("memory: UnmarshalJSON on nil Signal")
	}
	*s = append((*s)[:0], data...)
	return nil
}

// SignalFields is the handful of well-known keys read out of a signal.
type SignalFields struct {
	Title          string   `json:"title"`
	SignalStrength float64  `json:"signal_strength"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags"`
}

// Fields decodes the well-known keys. Keys with an unexpected shape are left
// zero; the payload itself is untouched.
func (s Signal) Fields() SignalFields {
	var f SignalFields
	if len(s) == 0 {
		return f
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(s, &raw); err != nil {
		return f
	}
	_ = json.Unmarshal(raw["title"], &f.Title)
	_ = json.Unmarshal(raw["signal_strength"], &f.SignalStrength)
	_ = json.Unmarshal(raw["category"], &f.Category)
	if err := json.Unmarshal(raw["tags"], &f.Tags); err != nil {
		f.Tags = nil
	}
	return f
}

// Days maps dates to signal batches and keeps the order dates were first added.
// It persists as a plain JSON object written in that order.
type Days struct {
	order   []string
	batches map[string][]Signal
}

// Set stores batch under date. A date that is already present keeps its position.
func (d *Days) Set(date string, batch []Signal) {
	if d.batches == nil {
		d.batches = map[string][]Signal{}
	}
	if _, ok := d.batches[date]; !ok {
		d.order = append(d.order, date)
	}
	if batch == nil {
		batch = []Signal{}
	}
	d.batches[date] = batch
}

// Get returns the batch for date.
func (d Days) Get(date string) ([]Signal, bool) {
	b, ok := d.batches[date]
	return b, ok
}

// Dates returns the dates in insertion order.
func (d Days) Dates() []string {
	return append([]string(nil), d.order...)
}

// Len returns the number of dates.
func (d Days) Len() int {
	return len(d.order)
}

// SignalCount returns the number of signals across all dates.
func (d Days) SignalCount() int {
	n := 0
	for _, b := range d.batches {
		n += len(b)
	}
	return n
}

// MarshalJSON implements json.Marshaler.
func (d Days) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, date := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(date)
		if err != nil {
			return nil, err
		}
		batch, err := json.Marshal(d.batches[date])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(batch)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping the key order of the input.
func (d *Days) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = Days{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("memory: days must be a JSON object")
	}
	var out Days
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("memory: days key %v is not a string", tok)
		}
		var batch []Signal
		if err := dec.Decode(&batch); err != nil {
			return fmt.Errorf("memory: days[%s]: %w", date, err)
		}
		out.Set(date, batch)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}
