package model

import "fmt"

// Status is the takedown state of a captured reply.
type Status string

const (
	// StatusUnknown means the reply has never been re-checked since capture.
	StatusUnknown Status = "UNKNOWN"
	StatusLive    Status = "LIVE"
	StatusRemoved Status = "REMOVED"
)

// The comments table encodes status in the removed column.
const (
	removedCodeUnknown = -1
	removedCodeLive    = 0
	removedCodeRemoved = 1
)

// RemovedCode returns the integer encoding used by the removed column.
func (s Status) RemovedCode() int {
	switch s {
	case StatusLive:
		return removedCodeLive
	case StatusRemoved:
		return removedCodeRemoved
	default:
		return removedCodeUnknown
	}
}

// StatusFromRemovedCode decodes the removed column.
func StatusFromRemovedCode(code int) (Status, error) {
	switch code {
	case removedCodeUnknown:
		return StatusUnknown, nil
	case removedCodeLive:
		return StatusLive, nil
	case removedCodeRemoved:
		return StatusRemoved, nil
	default:
		return StatusUnknown, fmt.Errorf("unknown removed code: %d", code)
	}
}
