package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/meetscribe/meetscribe/internal/types"
	"github.com/meetscribe/meetscribe/livecaption"
)

// Presenter is the UI side of the pipeline: a single goroutine drains
// the handoff queue, folds results into the transcript and emits events
// for the frontend. The transcript is owned here; the pipeline worker
// never touches it.
type Presenter struct {
	handoff *livecaption.Handoff
	emit    func(name string, data any)

	mu         sync.Mutex
	transcript *livecaption.Transcript
	sessionID  string
	stop       chan struct{}
	done       chan struct{}
}

// NewPresenter creates a presenter draining the given handoff.
func NewPresenter(handoff *livecaption.Handoff, emit func(name string, data any)) *Presenter {
	return &Presenter{
		handoff:    handoff,
		emit:       emit,
		transcript: livecaption.NewTranscript(),
	}
}

// Start clears the transcript and launches the drain loop for a new
// pipeline session. A previous loop, if any, is stopped first.
func (p *Presenter) Start(sessionID string) {
	p.Stop()

	p.mu.Lock()
	p.transcript.Reset()
	p.sessionID = sessionID
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go p.drainLoop(stop, done)
}

// Stop halts the drain loop and applies anything still queued, so the
// final flushed during pipeline shutdown reaches the transcript. The
// committed text stays on screen.
func (p *Presenter) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	p.apply(p.handoff.Drain())
}

// Snapshot returns the current transcript state as an update payload.
func (p *Presenter) Snapshot() types.CaptionUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Presenter) snapshotLocked() types.CaptionUpdate {
	return types.CaptionUpdate{
		History:   p.transcript.History(),
		Live:      p.transcript.Live(),
		Rendered:  p.transcript.Render(),
		SessionID: p.sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
}

func (p *Presenter) drainLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-p.handoff.Wake():
			p.apply(p.handoff.Drain())
		}
	}
}

// apply folds a batch of entries into the transcript and emits one
// caption update for the batch. Every final still gets its own event
// for the timestamped log.
func (p *Presenter) apply(entries []livecaption.Entry) {
	if len(entries) == 0 {
		return
	}

	p.mu.Lock()
	for _, e := range entries {
		if e.Err != nil {
			slog.Error("pipeline error", "error", e.Err)
			p.emit(EventPipelineError, types.PipelineError{Message: e.Err.Error()})
			continue
		}

		p.transcript.Apply(e.Result)
		if e.Result.Final && e.Result.Text != "" {
			p.emit(EventCaptionFinal, types.FinalSegment{
				Text:      e.Result.Text,
				Timestamp: time.Now().UnixMilli(),
			})
		}
	}
	update := p.snapshotLocked()
	p.mu.Unlock()

	p.emit(EventCaptionUpdate, update)
}
