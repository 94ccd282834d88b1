package events

import "time"

// DataServiceStart is emitted before a call to the data service.
// Call pairs it with the matching DataServiceFinish.
type DataServiceStart struct {
	Call   uint64
	Method string
	Path   string
	Target string
}

// DataServiceFinish is emitted after a data service call completes.
// Status is zero when no response was received.
type DataServiceFinish struct {
	Call     uint64
	Method   string
	Path     string
	Target   string
	Status   int
	Err      error
	Duration time.Duration
}
