package recognizer

import (
	"errors"
	"fmt"
	"testing"
)

// fakeKaldi scripts the binding surface for one Feed/Flush sequence.
type fakeKaldi struct {
	states   []int // AcceptWaveform return per call
	partials []string
	finals   []string
	flushed  string

	feedCalls    int
	partialCalls int
	finalCalls   int
}

func (f *fakeKaldi) AcceptWaveform([]byte) int {
	state := f.states[f.feedCalls]
	f.feedCalls++
	return state
}

func (f *fakeKaldi) PartialResult() []byte {
	text := f.partials[f.partialCalls]
	f.partialCalls++
	return []byte(fmt.Sprintf(`{"partial": %q}`, text))
}

func (f *fakeKaldi) Result() []byte {
	text := f.finals[f.finalCalls]
	f.finalCalls++
	return []byte(fmt.Sprintf(`{"text": %q}`, text))
}

func (f *fakeKaldi) FinalResult() []byte {
	return []byte(fmt.Sprintf(`{"text": %q}`, f.flushed))
}

func feedFrames(t *testing.T, v *Vosk, n int) []Result {
	t.Helper()

	var results []Result
	for i := 0; i < n; i++ {
		result, ok, err := v.Feed([]byte{0, 0})
		if err != nil {
			t.Fatalf("Feed frame %d: %v", i, err)
		}
		if ok {
			results = append(results, result)
		}
	}
	return results
}

func TestVoskFeedPartialThenFinal(t *testing.T) {
	fake := &fakeKaldi{
		states:   []int{0, 0, 0, 1},
		partials: []string{"hel", "hello", "hello wor"},
		finals:   []string{"hello world"},
	}
	v := &Vosk{rec: fake}

	results := feedFrames(t, v, 4)

	want := []Result{
		{Text: "hel", Final: false},
		{Text: "hello", Final: false},
		{Text: "hello wor", Final: false},
		{Text: "hello world", Final: true},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d: %v", len(results), len(want), results)
	}
	for i, r := range results {
		if r != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, r, want[i])
		}
	}
}

func TestVoskFeedSuppressesRepeatedPartials(t *testing.T) {
	fake := &fakeKaldi{
		states:   []int{0, 0, 0},
		partials: []string{"hello", "hello", "hello there"},
	}
	v := &Vosk{rec: fake}

	results := feedFrames(t, v, 3)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(results), results)
	}
	if results[0].Text != "hello" || results[1].Text != "hello there" {
		t.Errorf("results = %v", results)
	}
}

func TestVoskFeedEmptyFinalIsNoOp(t *testing.T) {
	fake := &fakeKaldi{
		states: []int{1},
		finals: []string{""},
	}
	v := &Vosk{rec: fake}

	results := feedFrames(t, v, 1)

	if len(results) != 0 {
		t.Errorf("empty final should yield no result, got %v", results)
	}
}

func TestVoskFeedTrimsWhitespace(t *testing.T) {
	fake := &fakeKaldi{
		states: []int{1},
		finals: []string{"  hello world "},
	}
	v := &Vosk{rec: fake}

	results := feedFrames(t, v, 1)

	if len(results) != 1 || results[0].Text != "hello world" {
		t.Errorf("results = %v, want single trimmed final", results)
	}
}

func TestVoskFeedDecoderFailure(t *testing.T) {
	fake := &fakeKaldi{states: []int{-1}}
	v := &Vosk{rec: fake}

	_, _, err := v.Feed([]byte{0, 0})
	if !errors.Is(err, ErrDecoder) {
		t.Fatalf("expected ErrDecoder, got %v", err)
	}
}

func TestVoskFlush(t *testing.T) {
	fake := &fakeKaldi{flushed: "last phrase"}
	v := &Vosk{rec: fake, lastPartial: "last phr"}

	result, ok, err := v.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !ok {
		t.Fatal("expected a flushed final")
	}
	if !result.Final || result.Text != "last phrase" {
		t.Errorf("result = %+v", result)
	}
	if v.lastPartial != "" {
		t.Errorf("lastPartial not reset: %q", v.lastPartial)
	}
}

func TestVoskFlushSilence(t *testing.T) {
	fake := &fakeKaldi{flushed: ""}
	v := &Vosk{rec: fake}

	_, ok, err := v.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if ok {
		t.Error("flush of silence should yield no result")
	}
}

func TestVoskPartialStateResetAfterFinal(t *testing.T) {
	fake := &fakeKaldi{
		states:   []int{0, 1, 0},
		partials: []string{"hello", "hello"},
		finals:   []string{"hello"},
	}
	v := &Vosk{rec: fake}

	results := feedFrames(t, v, 3)

	// The partial after the final opens a new utterance; even though its
	// text matches the pre-final partial it must not be suppressed.
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3: %v", len(results), results)
	}
	if results[2].Final || results[2].Text != "hello" {
		t.Errorf("post-final partial = %+v", results[2])
	}
}

func TestParseText(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		field   string
		want    string
		wantErr bool
	}{
		{"final", `{"text": "hello world"}`, "text", "hello world", false},
		{"partial", `{"partial": "hel"}`, "partial", "hel", false},
		{"missing_field", `{"text": "x"}`, "partial", "", false},
		{"whitespace", `{"text": " padded "}`, "text", "padded", false},
		{"with_words", `{"result": [{"word": "hi"}], "text": "hi"}`, "text", "hi", false},
		{"garbage", `not json`, "text", "", true},
		{"wrong_type", `{"text": 42}`, "text", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseText([]byte(tt.raw), tt.field)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseText() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseText() = %q, want %q", got, tt.want)
			}
		})
	}
}
