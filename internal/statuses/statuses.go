package statuses

// Realtime session statuses. A session only moves forward:
// waiting -> playing -> finished | abandoned.
const (
	StatusWaiting   = "waiting"
	StatusPlaying   = "playing"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"
)

// Persistent (async) game statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
)
