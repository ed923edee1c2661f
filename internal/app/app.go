package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/meetscribe/meetscribe/audiocapture"
	"github.com/meetscribe/meetscribe/config"
	"github.com/meetscribe/meetscribe/hotkey"
	"github.com/meetscribe/meetscribe/internal/types"
	"github.com/meetscribe/meetscribe/livecaption"
	"github.com/meetscribe/meetscribe/model"
	"github.com/meetscribe/meetscribe/recognizer"
)

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; the pipeline and transcript
// logic live in sub-components.
type Service struct {
	cfg    *config.Config
	hotkey *hotkey.HotkeyManager

	// UI references - set via Init
	app    *application.App
	window application.Window

	mu        sync.Mutex
	pipeline  *livecaption.Service
	presenter *Presenter

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string) *Service {
	return &Service{version: version}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = config.Default()
	}
	s.cfg = cfg

	if cfg.HotkeyEnabled {
		s.setupHotkey()
	}
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if err := s.StopTranscription(); err != nil {
		slog.Error("stop transcription on shutdown", "error", err)
	}
}

func (s *Service) setupHotkey() {
	s.hotkey = hotkey.NewHotkeyManager(
		func() { s.ToggleTranscription() },
		func() { s.showWindow() },
	)
	if err := s.hotkey.Start(); err != nil {
		slog.Error("start hotkey", "error", err)
	}
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

func (s *Service) showWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transcription
// ─────────────────────────────────────────────────────────────────────────────

// StartTranscription builds the capture-to-caption pipeline and starts
// it. The configured model must already be installed; a missing model,
// microphone or corrupt model is reported as an error without retrying.
func (s *Service) StartTranscription() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil {
		if s.pipeline.State() != livecaption.StateStopped {
			return livecaption.ErrAlreadyRunning
		}
		// A pipeline that stopped itself (decoder failure) still holds
		// its engine; release it before building the next run.
		_ = s.pipeline.Close()
		s.presenter.Stop()
		s.pipeline = nil
	}

	info, err := model.Resolve(s.cfg.ModelLanguage)
	if err != nil {
		return fmt.Errorf("resolve model: %w", err)
	}
	dir := filepath.Join(s.cfg.ModelDir, info.Name)
	if !model.IsPresent(dir) {
		return fmt.Errorf("model %q not installed, run setup first", info.Name)
	}

	engine, err := recognizer.NewVosk(dir, s.cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("open recognizer: %w", err)
	}

	capture, err := audiocapture.New(audiocapture.Config{
		SampleRate: s.cfg.SampleRate,
		BlockSize:  s.cfg.BlockSize,
	})
	if err != nil {
		_ = engine.Close()
		return fmt.Errorf("configure capture: %w", err)
	}

	pipeline, err := livecaption.NewService(livecaption.Config{
		Capture:         capture,
		Engine:          engine,
		PartialInterval: s.cfg.PartialInterval(),
		FlushTimeout:    s.cfg.FlushTimeout(),
	})
	if err != nil {
		_ = engine.Close()
		return err
	}

	if err := pipeline.Start(); err != nil {
		_ = engine.Close()
		return err
	}

	s.pipeline = pipeline
	s.presenter = NewPresenter(pipeline.Handoff(), s.emit)
	s.presenter.Start(pipeline.Status().SessionID)

	s.emit(EventPipelineStatus, pipeline.Status())
	return nil
}

// StopTranscription stops the pipeline, letting it flush the last
// utterance, and drains what remains into the transcript. The committed
// text stays visible after stop.
func (s *Service) StopTranscription() error {
	s.mu.Lock()
	pipeline, presenter := s.pipeline, s.presenter
	s.pipeline = nil
	s.mu.Unlock()

	if pipeline == nil {
		return nil
	}

	err := pipeline.Close()
	presenter.Stop()
	s.emit(EventPipelineStatus, pipeline.Status())
	return err
}

// ToggleTranscription flips between running and stopped, for the hotkey
// and the tray menu.
func (s *Service) ToggleTranscription() {
	s.mu.Lock()
	running := s.pipeline != nil && s.pipeline.State() == livecaption.StateRunning
	s.mu.Unlock()

	if running {
		if err := s.StopTranscription(); err != nil {
			slog.Error("stop transcription", "error", err)
		}
		return
	}
	if err := s.StartTranscription(); err != nil {
		slog.Error("start transcription", "error", err)
		s.emit(EventPipelineError, types.PipelineError{Message: err.Error()})
	}
}

// GetStatus returns the current pipeline status.
func (s *Service) GetStatus() types.PipelineStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline == nil {
		return types.PipelineStatus{State: livecaption.StateStopped.String()}
	}
	return s.pipeline.Status()
}

// GetTranscript returns the current transcript state, for a frontend
// that just (re)connected and missed the incremental events.
func (s *Service) GetTranscript() types.CaptionUpdate {
	s.mu.Lock()
	presenter := s.presenter
	s.mu.Unlock()

	if presenter == nil {
		return types.CaptionUpdate{History: []string{}}
	}
	return presenter.Snapshot()
}

// ─────────────────────────────────────────────────────────────────────────────
// Model Management
// ─────────────────────────────────────────────────────────────────────────────

// GetModels returns the model catalog with install state.
func (s *Service) GetModels() []types.ModelInfo {
	infos := model.Languages()
	out := make([]types.ModelInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, types.ModelInfo{
			Name:     info.Name,
			Language: info.Lang.String(),
			Present:  model.IsPresent(filepath.Join(s.cfg.ModelDir, info.Name)),
		})
	}
	return out
}

// SetModelLanguage selects the recognition language and persists it.
// Takes effect on the next transcription start.
func (s *Service) SetModelLanguage(tag string) error {
	if _, err := model.Resolve(tag); err != nil {
		return err
	}
	s.cfg.ModelLanguage = tag
	return s.cfg.Save()
}

// SetupModel downloads and installs the model for the configured
// language, emitting progress events along the way. A no-op when the
// model is already installed.
func (s *Service) SetupModel() error {
	info, err := model.Resolve(s.cfg.ModelLanguage)
	if err != nil {
		s.emit(EventModelError, types.PipelineError{Message: err.Error()})
		return err
	}
	if s.cfg.ModelURL != "" {
		info.URL = s.cfg.ModelURL
	}

	dir := filepath.Join(s.cfg.ModelDir, info.Name)
	err = model.Ensure(dir, info, func(percent int) {
		s.emit(EventModelProgress, ModelProgress{Name: info.Name, Percent: percent})
	})
	if err != nil {
		s.emit(EventModelError, types.PipelineError{Message: err.Error()})
		return fmt.Errorf("setup model %q: %w", info.Name, err)
	}

	s.emit(EventModelReady, types.ModelInfo{
		Name:     info.Name,
		Language: info.Lang.String(),
		Present:  true,
	})
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// GetConfig returns the current configuration.
func (s *Service) GetConfig() config.Config {
	return *s.cfg
}

// SetHotkeyEnabled toggles the global shortcuts and persists the choice.
func (s *Service) SetHotkeyEnabled(enabled bool) error {
	s.cfg.HotkeyEnabled = enabled

	if enabled && s.hotkey == nil {
		s.setupHotkey()
	} else if !enabled && s.hotkey != nil {
		s.hotkey.Stop()
		s.hotkey = nil
	}

	return s.cfg.Save()
}
