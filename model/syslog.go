package model

import "time"

// LogLevel classifies a system log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// SystemLog is one entry in the bounded system log feed shown to operators.
type SystemLog struct {
	ID        string
	Timestamp time.Time
	Level     LogLevel
	Message   string
	// Source is a free-text origin tag, e.g. "telemetry", "settings".
	Source string
	// Details carries optional extra context; empty when absent.
	Details string
}
