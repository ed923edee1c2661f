// Package audiocapture provides microphone capture via the miniaudio backend.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

// ErrNotCapturing is returned when trying to stop while not capturing.
var ErrNotCapturing = errors.New("not capturing audio")

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

const bytesPerSample = 2 // S16LE mono

// FrameHandler receives one fixed-size PCM frame (S16LE mono).
// The slice is only valid for the duration of the call.
type FrameHandler func(frame []byte)

// Capturer is the capture contract the pipeline depends on.
type Capturer interface {
	Start(handler FrameHandler) error
	Stop() error
	SampleRate() int
}

// Config holds configuration for audio capture.
type Config struct {
	SampleRate int // Hz, default 16000 (what the recognizer expects)
	BlockSize  int // Samples per emitted frame, default 3200 (~200 ms)
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		BlockSize:  3200,
	}
}

// Capture captures the default microphone and emits fixed-size frames.
// The device handle is held only between Start and Stop and is released
// on every exit path, including errors during Start.
type Capture struct {
	mu  sync.Mutex
	cfg Config

	capturing bool
	ctx       *malgo.AllocatedContext
	device    *malgo.Device
}

// New creates a new microphone capture instance.
func New(cfg Config) (*Capture, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = 3200
	}
	if cfg.SampleRate < 8000 || cfg.SampleRate > 48000 {
		return nil, fmt.Errorf("sample rate out of range: %d", cfg.SampleRate)
	}
	if cfg.BlockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive: %d", cfg.BlockSize)
	}

	return &Capture{cfg: cfg}, nil
}

// Start opens the default capture device and begins producing frames.
// Device unavailability (no microphone, permission denied) is returned
// as an error and leaves the capture stopped.
func (c *Capture) Start(handler FrameHandler) error {
	if handler == nil {
		return errors.New("nil frame handler")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capturing {
		return ErrAlreadyCapturing
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return fmt.Errorf("init audio backend: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(c.cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	chunker := newFrameChunker(c.cfg.BlockSize*bytesPerSample, handler)

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			chunker.write(input)
		},
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("start capture device: %w", err)
	}

	c.ctx = ctx
	c.device = device
	c.capturing = true
	slog.Info("audio capture started", "sample_rate", c.cfg.SampleRate, "block_size", c.cfg.BlockSize)
	return nil
}

// Stop halts production and releases the device. Safe to call more than
// once; stopping an idle capture is a no-op.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return nil
	}

	c.device.Uninit()
	if err := c.ctx.Uninit(); err != nil {
		slog.Warn("uninit audio backend", "error", err)
	}
	c.ctx.Free()

	c.device = nil
	c.ctx = nil
	c.capturing = false
	slog.Info("audio capture stopped")
	return nil
}

// IsCapturing returns true while the device is held.
func (c *Capture) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// SampleRate returns the configured sample rate.
func (c *Capture) SampleRate() int {
	return c.cfg.SampleRate
}
