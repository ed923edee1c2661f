package livecaption

import (
	"errors"
	"fmt"
	"testing"
)

func TestHandoffFIFO(t *testing.T) {
	h := NewHandoff()

	h.Push(partial("a"))
	h.Push(final("a b"))
	h.Push(partial("c"))
	h.Push(final("c d"))

	entries := h.Drain()
	want := []string{"a", "a b", "c", "c d"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, e := range entries {
		if e.Result.Text != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Result.Text, want[i])
		}
	}
	if !entries[1].Result.Final || !entries[3].Result.Final {
		t.Error("final flags lost in transit")
	}
}

func TestHandoffCoalescesTrailingPartials(t *testing.T) {
	h := NewHandoff()

	h.Push(partial("h"))
	h.Push(partial("he"))
	h.Push(partial("hel"))

	entries := h.Drain()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (partials coalesce)", len(entries))
	}
	if entries[0].Result.Text != "hel" {
		t.Errorf("coalesced partial = %q, want latest", entries[0].Result.Text)
	}
}

func TestHandoffNeverDropsFinalsUnderFlood(t *testing.T) {
	h := NewHandoff()

	for i := 0; i < 1000; i++ {
		h.Push(partial(fmt.Sprintf("partial %d", i)))
	}
	h.Push(final("the final text"))

	entries := h.Drain()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (one coalesced partial + one final)", len(entries))
	}
	if entries[0].Result.Text != "partial 999" {
		t.Errorf("surviving partial = %q, want most recent", entries[0].Result.Text)
	}
	if !entries[1].Result.Final || entries[1].Result.Text != "the final text" {
		t.Errorf("final entry = %+v", entries[1])
	}
}

func TestHandoffDoesNotCoalesceAcrossFinal(t *testing.T) {
	h := NewHandoff()

	h.Push(partial("a"))
	h.Push(final("a b"))
	h.Push(partial("c"))

	entries := h.Drain()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].Result.Text != "a b" || !entries[1].Result.Final {
		t.Errorf("final misplaced: %+v", entries)
	}
}

func TestHandoffErrorsKeptInOrder(t *testing.T) {
	h := NewHandoff()

	h.Push(partial("a"))
	h.PushErr(errors.New("decode failed"))
	h.Push(partial("b"))

	entries := h.Drain()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (no coalescing across errors)", len(entries))
	}
	if entries[1].Err == nil {
		t.Error("error entry lost")
	}
	if entries[2].Result.Text != "b" {
		t.Errorf("entry after error = %q", entries[2].Result.Text)
	}
}

func TestHandoffWake(t *testing.T) {
	h := NewHandoff()

	select {
	case <-h.Wake():
		t.Fatal("wake before any push")
	default:
	}

	h.Push(partial("a"))
	h.Push(partial("b")) // second signal collapses into the pending one

	select {
	case <-h.Wake():
	default:
		t.Fatal("no wake after push")
	}
}

func TestHandoffDrainEmpties(t *testing.T) {
	h := NewHandoff()
	h.Push(final("x"))

	if got := len(h.Drain()); got != 1 {
		t.Fatalf("first drain = %d entries", got)
	}
	if got := h.Drain(); got != nil {
		t.Errorf("second drain = %v, want nil", got)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d after drain", h.Len())
	}
}
