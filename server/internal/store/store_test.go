package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tonerelay/tonerelay/pkg/types"
)

func osc(id string, freq float64) types.Oscillator {
	return types.NewOscillator(types.Fields{ID: id, Frequency: freq})
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestNew_Seed(t *testing.T) {
	st := New([]types.Oscillator{osc("osc-initial", 440)})

	got := st.Get()
	if len(got) != 1 {
		t.Fatalf("Get: got %d oscillators, want 1", len(got))
	}
	if !got[0].Equal(osc("osc-initial", 440)) {
		t.Errorf("Get[0]: got %s, want osc-initial@440", got[0])
	}
	if st.Revision() != 0 {
		t.Errorf("Revision: got %d, want 0", st.Revision())
	}
}

func TestNew_NilSeed_GetReturnsEmpty(t *testing.T) {
	st := New(nil)
	got := st.Get()
	if got == nil {
		t.Fatal("Get: got nil, want empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("Get: got %d oscillators, want 0", len(got))
	}
}

func TestNew_CopiesSeed(t *testing.T) {
	seed := []types.Oscillator{osc("a", 100)}
	st := New(seed)
	seed[0][1] = 'X'

	if got := st.Get()[0]; !got.Equal(osc("a", 100)) {
		t.Errorf("record after caller mutation: got %s, want a@100", got)
	}
}

func TestReplace_Wholesale(t *testing.T) {
	st := New([]types.Oscillator{osc("a", 100), osc("b", 200)})

	st.Replace([]types.Oscillator{osc("c", 300)})

	got := st.Get()
	if len(got) != 1 || !got[0].Equal(osc("c", 300)) {
		t.Fatalf("Get after Replace: got %s, want only c", got)
	}
}

func TestReplace_LastWriterWins(t *testing.T) {
	st := New(nil)
	x := []types.Oscillator{osc("x1", 1), osc("x2", 2)}
	y := []types.Oscillator{osc("y1", 3)}

	st.Replace(x)
	st.Replace(y)

	got := st.Get()
	if len(got) != 1 || !got[0].Equal(y[0]) {
		t.Errorf("Get: got %s, want %s", got, y)
	}
	if st.Revision() != 2 {
		t.Errorf("Revision: got %d, want 2", st.Revision())
	}
}

func TestReplace_EmptyAccepted(t *testing.T) {
	st := New([]types.Oscillator{osc("a", 100)})
	st.Replace(nil)

	if n := st.Len(); n != 0 {
		t.Errorf("Len after empty Replace: got %d, want 0", n)
	}
	if st.Get() == nil {
		t.Error("Get after empty Replace: got nil, want empty slice")
	}
}

func TestReplace_NoValidation(t *testing.T) {
	// Duplicate ids, negative frequencies and foreign shapes are stored verbatim.
	bad := []types.Oscillator{
		osc("dup", -5),
		osc("dup", 0),
		types.Oscillator(`{"id":"x","frequency":"high","waveform":"sine"}`),
		types.Oscillator(`42`),
	}
	st := New(nil)
	st.Replace(bad)

	got := st.Get()
	if len(got) != len(bad) {
		t.Fatalf("Get: got %d records, want %d", len(got), len(bad))
	}
	for i := range bad {
		if !got[i].Equal(bad[i]) {
			t.Errorf("Get[%d]: got %s, want %s", i, got[i], bad[i])
		}
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	st := New([]types.Oscillator{osc("a", 100)})
	got := st.Get()
	got[0] = osc("mutated", 0)

	if now := st.Get(); len(now) != 1 || !now[0].Equal(osc("a", 100)) {
		t.Errorf("state after mutating Get result: got %s, want a@100", now)
	}
}

func TestUpdatedAt(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st := New(nil)
	st.now = fixedClock(base)

	st.Replace([]types.Oscillator{osc("a", 1)})

	if got := st.UpdatedAt(); !got.Equal(base) {
		t.Errorf("UpdatedAt: got %v, want %v", got, base)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New(nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			st.Replace([]types.Oscillator{osc(fmt.Sprintf("osc-%d", n), float64(n))})
		}(i)
		go func() {
			defer wg.Done()
			st.Get()
		}()
	}
	wg.Wait()

	if st.Revision() != 50 {
		t.Errorf("Revision after concurrent replaces: got %d, want 50", st.Revision())
	}
	if st.Len() != 1 {
		t.Errorf("Len: got %d, want 1", st.Len())
	}
}
