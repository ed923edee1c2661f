// Package livecaption runs the real-time microphone-to-transcript pipeline.
package livecaption

import (
	"strings"

	"github.com/meetscribe/meetscribe/recognizer"
)

// Transcript holds the displayed text state: an append-only history of
// final segments plus one live segment tracking the open utterance.
//
// The visible transcript is always join(history, " ") + live. A partial
// replaces the live segment wholesale; a final appends to history and
// clears the live segment in the same update. Applying is O(1) relative
// to history length: the committed text is accumulated, never re-joined.
type Transcript struct {
	history   []string
	committed strings.Builder
	live      string
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Apply folds one recognizer result into the transcript.
func (t *Transcript) Apply(r recognizer.Result) {
	if !r.Final {
		t.live = r.Text
		return
	}

	// The engine already filters empty finals; keep the invariant local too.
	if r.Text != "" {
		if t.committed.Len() > 0 {
			t.committed.WriteString(" ")
		}
		t.committed.WriteString(r.Text)
		t.history = append(t.history, r.Text)
	}
	t.live = ""
}

// History returns a copy of the committed segments in arrival order.
func (t *Transcript) History() []string {
	out := make([]string, len(t.history))
	copy(out, t.history)
	return out
}

// Live returns the current live segment, empty if no utterance is open.
func (t *Transcript) Live() string {
	return t.live
}

// Render returns the full visible transcript. Calling it repeatedly
// without an intervening Apply yields the identical string.
func (t *Transcript) Render() string {
	if t.live == "" {
		return t.committed.String()
	}
	if t.committed.Len() == 0 {
		return t.live
	}
	return t.committed.String() + " " + t.live
}

// FinalCount returns the number of committed segments.
func (t *Transcript) FinalCount() int {
	return len(t.history)
}

// Reset clears all state for a new session.
func (t *Transcript) Reset() {
	t.history = nil
	t.committed.Reset()
	t.live = ""
}
