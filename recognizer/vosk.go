package recognizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	vosk "github.com/alphacep/vosk-api/go"
)

// kaldiRecognizer is the slice of the Vosk binding the engine depends on.
// Tests substitute a fake; production wires *vosk.VoskRecognizer.
type kaldiRecognizer interface {
	AcceptWaveform([]byte) int
	PartialResult() []byte
	Result() []byte
	FinalResult() []byte
}

// Vosk adapts a Vosk/Kaldi streaming recognizer to the Engine interface.
// It normalizes the engine's JSON output into Results and suppresses
// repeated identical partials so the UI isn't flooded with no-op updates.
type Vosk struct {
	model *vosk.VoskModel
	rec   kaldiRecognizer
	free  func()

	lastPartial string
}

// NewVosk loads the model at modelPath and opens a streaming recognizer
// for the given sample rate. A missing or corrupt model is a startup
// failure; callers should surface it and not retry.
func NewVosk(modelPath string, sampleRate int) (*Vosk, error) {
	vosk.SetLogLevel(-1) // quiet Kaldi's stderr chatter

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %q: %w", modelPath, err)
	}

	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	rec.SetWords(1)

	return &Vosk{
		model: model,
		rec:   rec,
		free:  func() { rec.Free() },
	}, nil
}

// Feed submits one frame to the streaming decode step.
func (v *Vosk) Feed(frame []byte) (Result, bool, error) {
	state := v.rec.AcceptWaveform(frame)
	if state < 0 {
		return Result{}, false, fmt.Errorf("%w: accept waveform returned %d", ErrDecoder, state)
	}

	// Non-zero means the endpoint detector closed the utterance.
	if state > 0 {
		v.lastPartial = ""
		text, err := parseText(v.rec.Result(), "text")
		if err != nil {
			slog.Debug("skipping unparseable final result", "error", err)
			return Result{}, false, nil
		}
		if text == "" {
			// Silence misread as an utterance boundary; nothing to commit.
			return Result{}, false, nil
		}
		return Result{Text: text, Final: true}, true, nil
	}

	partial, err := parseText(v.rec.PartialResult(), "partial")
	if err != nil {
		slog.Debug("skipping unparseable partial result", "error", err)
		return Result{}, false, nil
	}
	if partial == "" || partial == v.lastPartial {
		return Result{}, false, nil
	}
	v.lastPartial = partial
	return Result{Text: partial, Final: false}, true, nil
}

// Flush requests the final decode pass, closing the open utterance.
func (v *Vosk) Flush() (Result, bool, error) {
	v.lastPartial = ""

	text, err := parseText(v.rec.FinalResult(), "text")
	if err != nil {
		return Result{}, false, fmt.Errorf("%w: %v", ErrDecoder, err)
	}
	if text == "" {
		return Result{}, false, nil
	}
	return Result{Text: text, Final: true}, true, nil
}

// Close releases the recognizer and model.
func (v *Vosk) Close() error {
	if v.free != nil {
		v.free()
		v.free = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}

// parseText extracts and trims a string field from the engine's JSON
// output, e.g. {"text": "hello world"} or {"partial": "hel"}.
func parseText(raw []byte, field string) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("unmarshal result: %w", err)
	}

	value, ok := payload[field]
	if !ok {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(value, &text); err != nil {
		return "", fmt.Errorf("unmarshal %s field: %w", field, err)
	}
	return strings.TrimSpace(text), nil
}
