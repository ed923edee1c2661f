// Package types provides shared type definitions for the application.
package types

// CaptionUpdate is the payload of every transcript change pushed to the
// frontend. Rendered is always join(History, " ") plus the live segment.
type CaptionUpdate struct {
	History   []string `json:"history"`   // Committed final segments, in order
	Live      string   `json:"live"`      // Current partial, empty when no utterance is open
	Rendered  string   `json:"rendered"`  // Full visible transcript
	SessionID string   `json:"sessionId"` // Pipeline run that produced this update
	Timestamp int64    `json:"timestamp"` // Unix timestamp in milliseconds
}

// FinalSegment is emitted once per committed utterance for the
// timestamped log pane.
type FinalSegment struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
}

// PipelineStatus describes the transcription pipeline state.
type PipelineStatus struct {
	State      string `json:"state"` // "stopped", "running", "stopping"
	SessionID  string `json:"sessionId"`
	Duration   int64  `json:"duration"` // Running duration in seconds
	FinalCount int64  `json:"finalCount"`
	SampleRate int    `json:"sampleRate"`
}

// PipelineError is the payload of a fatal pipeline error surfaced to the
// user as a single message.
type PipelineError struct {
	Message string `json:"message"`
}

// ModelInfo describes a catalog model for the settings UI.
type ModelInfo struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Present  bool   `json:"present"`
}
