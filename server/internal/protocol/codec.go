package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tonerelay/tonerelay/pkg/types"
)

// Wire type discriminators.
const (
	TypeSync   = "SYNC"
	TypeUpdate = "UPDATE"
)

// Kind classifies a decoded inbound message.
type Kind int

const (
	// KindNoop means the payload must be ignored: no state change, no reply.
	KindNoop Kind = iota
	// KindUpdate means the payload carries a full replacement state.
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindUpdate:
		return "update"
	default:
		return "noop"
	}
}

var (
	// ErrMissingType is returned for JSON objects without a "type" field.
	ErrMissingType = errors.New("protocol: missing type")
	// ErrUnknownType is returned for any "type" the server does not accept.
	ErrUnknownType = errors.New("protocol: unknown type")
)

// Envelope is the JSON shape shared by SYNC and UPDATE.
type Envelope struct {
	Type        string             `json:"type"`
	Oscillators []types.Oscillator `json:"oscillators"`
}

// Message is the result of decoding one inbound frame.
type Message struct {
	Kind        Kind
	Type        string // raw "type" value, for logging
	Oscillators []types.Oscillator
}

// Decode parses one inbound text frame. Only UPDATE is recognised; every other
// outcome is KindNoop with a non-nil error. The oscillators field must be a
// JSON array when present; an absent or null field decodes to an empty list.
// Array elements are kept as the exact JSON text received.
func Decode(data []byte) (Message, error) {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Message{Kind: KindNoop}, fmt.Errorf("protocol: decode: %w", err)
	}
	if head.Type == nil {
		return Message{Kind: KindNoop}, ErrMissingType
	}
	if *head.Type != TypeUpdate {
		return Message{Kind: KindNoop, Type: *head.Type}, fmt.Errorf("%w %q", ErrUnknownType, *head.Type)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{Kind: KindNoop, Type: TypeUpdate}, fmt.Errorf("protocol: decode update: %w", err)
	}
	return Message{
		Kind:        KindUpdate,
		Type:        TypeUpdate,
		Oscillators: types.Clone(env.Oscillators),
	}, nil
}

// EncodeSync renders oscs as a SYNC frame. A nil slice is sent as [].
func EncodeSync(oscs []types.Oscillator) ([]byte, error) {
	if oscs == nil {
		oscs = []types.Oscillator{}
	}
	data, err := json.Marshal(Envelope{Type: TypeSync, Oscillators: oscs})
	if err != nil {
		return nil, fmt.Errorf("protocol: encode sync: %w", err)
	}
	return data, nil
}
