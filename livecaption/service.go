package livecaption

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/meetscribe/audiocapture"
	"github.com/meetscribe/meetscribe/internal/types"
	"github.com/meetscribe/meetscribe/recognizer"
)

// ErrAlreadyRunning is returned when starting a pipeline that is not stopped.
var ErrAlreadyRunning = errors.New("pipeline already running")

// State is the pipeline lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Config holds the pipeline dependencies and tuning.
type Config struct {
	Capture audiocapture.Capturer
	Engine  recognizer.Engine

	// PartialInterval is the minimum gap between partials pushed to the
	// handoff; intermediate snapshots inside the window are skipped.
	PartialInterval time.Duration

	// FlushTimeout bounds the final decode pass during shutdown.
	FlushTimeout time.Duration
}

// Service owns the capture device and the recognition engine, and runs
// the single background worker turning frames into results. Results
// cross to the UI side only through the Handoff; the service never
// touches presenter state.
type Service struct {
	cfg     Config
	handoff *Handoff

	mu         sync.Mutex
	state      State
	sessionID  string
	startTime  time.Time
	stop       chan struct{}
	workerDone chan struct{}

	finalCount   atomic.Int64
	droppedCount atomic.Int64
}

// NewService creates a pipeline service. Capture and Engine are required.
func NewService(cfg Config) (*Service, error) {
	if cfg.Capture == nil {
		return nil, errors.New("no capture source set")
	}
	if cfg.Engine == nil {
		return nil, errors.New("no recognition engine set")
	}
	if cfg.PartialInterval == 0 {
		cfg.PartialInterval = 80 * time.Millisecond
	}
	if cfg.FlushTimeout == 0 {
		cfg.FlushTimeout = 2 * time.Second
	}

	return &Service{
		cfg:     cfg,
		handoff: NewHandoff(),
	}, nil
}

// Handoff returns the queue the presenter drains.
func (s *Service) Handoff() *Handoff {
	return s.handoff
}

// Start opens the microphone and launches the worker. A device or engine
// startup failure leaves the pipeline Stopped with no worker running.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStopped {
		return ErrAlreadyRunning
	}

	frames := make(chan []byte, 8)
	stop := make(chan struct{})

	err := s.cfg.Capture.Start(func(frame []byte) {
		select {
		case frames <- frame:
		case <-stop:
		default:
			// Worker is behind real time; dropping a frame loses a
			// fraction of a second of audio, not committed text.
			s.droppedCount.Add(1)
			slog.Debug("dropped audio frame, worker busy")
		}
	})
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	s.sessionID = uuid.NewString()
	s.startTime = time.Now()
	s.stop = stop
	s.workerDone = make(chan struct{})
	s.finalCount.Store(0)
	s.droppedCount.Store(0)
	s.state = StateRunning

	go s.run(frames, stop, s.workerDone)

	slog.Info("pipeline started", "session", s.sessionID, "sample_rate", s.cfg.Capture.SampleRate())
	return nil
}

// Stop drains the worker, flushes the engine so an in-progress utterance
// is committed, releases the device and reports Stopped. Safe to call
// when already stopped.
func (s *Service) Stop() error {
	return s.shutdown(true)
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the current pipeline status.
func (s *Service) Status() types.PipelineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	var duration int64
	if s.state == StateRunning {
		duration = int64(time.Since(s.startTime).Seconds())
	}

	return types.PipelineStatus{
		State:      s.state.String(),
		SessionID:  s.sessionID,
		Duration:   duration,
		FinalCount: s.finalCount.Load(),
		SampleRate: s.cfg.Capture.SampleRate(),
	}
}

// Close stops the pipeline and releases the engine.
func (s *Service) Close() error {
	err := s.Stop()
	if cerr := s.cfg.Engine.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// run is the worker loop: one frame in, at most one result out. It is
// the only goroutine touching the engine's decoder state.
func (s *Service) run(frames <-chan []byte, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var lastPartial time.Time

	for {
		select {
		case <-stop:
			return
		case frame := <-frames:
			result, ok, err := s.cfg.Engine.Feed(frame)
			if err != nil {
				// Decoder state is not trusted after a failure: surface
				// the error and take the pipeline down without flushing.
				slog.Error("recognizer failure, stopping pipeline", "error", err)
				s.handoff.PushErr(fmt.Errorf("recognition failed: %w", err))
				go s.shutdown(false)
				return
			}
			if !ok {
				continue
			}

			if result.Final {
				s.finalCount.Add(1)
				s.handoff.Push(result)
				lastPartial = time.Time{}
				continue
			}

			// Partials are throttled; a skipped one is superseded by the
			// next anyway.
			if now := time.Now(); now.Sub(lastPartial) >= s.cfg.PartialInterval {
				s.handoff.Push(result)
				lastPartial = now
			}
		}
	}
}

func (s *Service) shutdown(flush bool) error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	stop := s.stop
	workerDone := s.workerDone
	session := s.sessionID
	started := s.startTime
	s.mu.Unlock()

	// Let the worker finish its in-flight frame, then flush the engine
	// so the last spoken phrase is committed before the device goes away.
	close(stop)
	<-workerDone

	if flush {
		s.flushFinal()
	}

	if err := s.cfg.Capture.Stop(); err != nil {
		slog.Error("stop capture", "error", err)
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()

	if dropped := s.droppedCount.Load(); dropped > 0 {
		slog.Warn("frames dropped during session", "session", session, "count", dropped)
	}
	slog.Info("pipeline stopped", "session", session, "duration", time.Since(started))
	return nil
}

// flushFinal runs the engine's final decode pass under the configured
// grace period. On timeout the shutdown proceeds; hanging forever on a
// wedged decoder would be worse than an incomplete last phrase.
func (s *Service) flushFinal() {
	type flushOut struct {
		result recognizer.Result
		ok     bool
		err    error
	}

	done := make(chan flushOut, 1)
	go func() {
		result, ok, err := s.cfg.Engine.Flush()
		done <- flushOut{result, ok, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			slog.Error("flush final decode", "error", out.err)
			s.handoff.PushErr(fmt.Errorf("flush failed: %w", out.err))
			return
		}
		if out.ok {
			s.finalCount.Add(1)
			s.handoff.Push(out.result)
		}
	case <-time.After(s.cfg.FlushTimeout):
		slog.Warn("flush timed out, last utterance may be incomplete", "timeout", s.cfg.FlushTimeout)
	}
}
