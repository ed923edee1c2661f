// Package recognizer provides the streaming speech recognition engine
// interface and the Vosk-backed implementation.
package recognizer

import "errors"

// ErrDecoder indicates an engine-internal decode failure. The decoder
// state cannot be trusted afterwards; the pipeline must stop rather
// than keep feeding the same engine.
var ErrDecoder = errors.New("recognizer decode failure")

// Result is a single hypothesis from the engine.
//
// A partial result (Final == false) is a tentative transcription of the
// currently open utterance and is superseded by the next result. A final
// result closes the utterance and is immutable once emitted.
type Result struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

// Engine is the capability interface over a streaming recognition engine.
// Implementations own one utterance's decoder state at a time; callers
// must not feed a single Engine from more than one goroutine.
type Engine interface {
	// Feed submits one PCM frame (S16LE mono at the configured sample
	// rate) and yields at most one result. ok reports whether a result
	// was produced for this frame.
	Feed(frame []byte) (result Result, ok bool, err error)

	// Flush runs the engine's final decode pass, closing any in-progress
	// utterance so its final hypothesis is not lost at shutdown.
	Flush() (result Result, ok bool, err error)

	// Close releases the decoder and model resources.
	Close() error
}
