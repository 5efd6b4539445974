package types

import (
	"encoding/json"
	"testing"
)

func TestOscillator_RoundTripIsVerbatim(t *testing.T) {
	in := `[{"id":"y","frequency":220,"isPlaying":false,"waveform":"sine"},{"id":"x","frequency":"high"},{"id":"z"},7]`

	var oscs []Oscillator
	if err := json.Unmarshal([]byte(in), &oscs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(oscs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("round trip:\n got %s\nwant %s", out, in)
	}
}

func TestNewOscillator(t *testing.T) {
	got := NewOscillator(Fields{ID: "osc-initial", Frequency: 440})
	want := `{"id":"osc-initial","frequency":440,"isPlaying":false}`
	if got.String() != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFromValue(t *testing.T) {
	got, err := FromValue(map[string]interface{}{"id": "a", "gain": 0.5})
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	if got.String() != `{"gain":0.5,"id":"a"}` {
		t.Errorf("got %s", got)
	}

	if _, err := FromValue(func() {}); err == nil {
		t.Error("expected error for a value with no JSON form")
	}
}

func TestClone_IsDeep(t *testing.T) {
	src := []Oscillator{Oscillator(`{"id":"a"}`)}
	dst := Clone(src)
	dst[0][2] = 'X'
	if src[0].String() != `{"id":"a"}` {
		t.Errorf("Clone shares record bytes: src now %s", src[0])
	}
	if empty := Clone(nil); empty == nil || len(empty) != 0 {
		t.Errorf("Clone(nil): got %#v, want empty non-nil", empty)
	}
}

func TestOscillator_EmptyMarshalsNull(t *testing.T) {
	out, err := json.Marshal([]Oscillator{nil})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `[null]` {
		t.Errorf("got %s, want [null]", out)
	}
}
