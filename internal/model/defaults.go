package model

import "time"

// Shared defaults used by the CLI and the capture layer.
// Interval and frequency are in whole seconds.
const (
	DefaultPort          = 514
	DefaultInterval      = 10
	DefaultFrequency     = 5
	DefaultReadTimeout   = time.Second
	DefaultSnapLen       = 65535
	DefaultErrorBackoff  = 10 * time.Millisecond
	DefaultHistoryLimit  = 50
	DefaultQueryRowLimit = 1000
)
