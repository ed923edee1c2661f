// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	EventCaptionUpdate  = "caption-update"
	EventCaptionFinal   = "caption-final"
	EventPipelineStatus = "pipeline-status"
	EventPipelineError  = "pipeline-error"
	EventModelProgress  = "model-setup-progress"
	EventModelReady     = "model-setup-complete"
	EventModelError     = "model-setup-error"
)

// ModelProgress is the payload of download progress events during model
// setup.
type ModelProgress struct {
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}
