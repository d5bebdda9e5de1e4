package analytics

import "time"

// StructureConfig tunes the remote structure client.
type StructureConfig struct {
	Timeout time.Duration
	Retries int // total attempts per call
	// Window is the number of trailing bars sent per request.
	Window int
}
