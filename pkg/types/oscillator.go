package types

import (
	"bytes"
	"encoding/json"
)

// Oscillator is one client-defined record, held as the JSON text the client
// sent. The relay never decodes it: fields it does not know about survive,
// and id uniqueness or frequency ranges are the clients' responsibility.
type Oscillator json.RawMessage

// Fields is the conventional shape of an Oscillator. It is only used to
// build records locally, for the configured seed and in tests.
type Fields struct {
	ID        string  `json:"id"`
	Frequency float64 `json:"frequency"`
	IsPlaying bool    `json:"isPlaying"`
}

// NewOscillator encodes f as an Oscillator record.
func NewOscillator(f Fields) Oscillator {
	data, _ := json.Marshal(f) // plain struct, cannot fail
	return Oscillator(data)
}

// FromValue encodes an arbitrary decoded value (for example a YAML mapping)
// as an Oscillator record.
func FromValue(v interface{}) (Oscillator, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Oscillator(data), nil
}

// MarshalJSON emits the record unchanged. An empty record encodes as null.
func (o Oscillator) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("null"), nil
	}
	return o, nil
}

// UnmarshalJSON keeps a private copy of data.
func (o *Oscillator) UnmarshalJSON(data []byte) error {
	*o = append((*o)[:0], data...)
	return nil
}

// Equal reports whether o and other hold the same JSON text.
func (o Oscillator) Equal(other Oscillator) bool {
	return bytes.Equal(o, other)
}

func (o Oscillator) String() string { return string(o) }

// Clone returns a deep copy of oscs. A nil or empty input yields an empty,
// non-nil slice so it encodes as [].
func Clone(oscs []Oscillator) []Oscillator {
	out := make([]Oscillator, len(oscs))
	for i, o := range oscs {
		out[i] = append(Oscillator(nil), o...)
	}
	return out
}
