// Package hotkey provides global keyboard shortcuts.
package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// HotkeyManager registers global shortcuts:
//
//	ctrl+shift+space  toggle transcription
//	ctrl+shift+m      show the main window
//
// Callbacks run on the hook's event goroutine; keep them short.
type HotkeyManager struct {
	onToggle     func()
	onShowWindow func()

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewHotkeyManager creates a hotkey manager with the given callbacks.
func NewHotkeyManager(onToggle, onShowWindow func()) *HotkeyManager {
	return &HotkeyManager{
		onToggle:     onToggle,
		onShowWindow: onShowWindow,
	}
}

// Start registers the shortcuts and begins listening for key events.
func (h *HotkeyManager) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	hook.Register(hook.KeyDown, []string{"ctrl", "shift", "space"}, func(hook.Event) {
		slog.Debug("hotkey: toggle transcription")
		if h.onToggle != nil {
			h.onToggle()
		}
	})
	hook.Register(hook.KeyDown, []string{"ctrl", "shift", "m"}, func(hook.Event) {
		slog.Debug("hotkey: show window")
		if h.onShowWindow != nil {
			h.onShowWindow()
		}
	})

	events := hook.Start()
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-hook.Process(events)
	}()

	h.done = done
	h.running = true
	slog.Info("global hotkeys registered")
	return nil
}

// Stop unregisters the shortcuts and stops the event loop.
func (h *HotkeyManager) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}

	hook.End()
	<-h.done
	h.done = nil
	h.running = false
	slog.Info("global hotkeys released")
}
