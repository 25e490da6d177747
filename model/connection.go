package model

import "time"

// ConnectionStatus is the health state of the simulated downlink.
type ConnectionStatus string

const (
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// RealTimeConnection is a snapshot of link health as published on the
// connection channel. MessagesReceived is monotone non-decreasing within a
// connected session; ConnectionTime is the instant of the last transition
// into connected.
type RealTimeConnection struct {
	Status             ConnectionStatus
	LastHeartbeat      time.Time
	DataLatency        time.Duration
	SubscribedChannels []string
	MessagesReceived   uint64
	ConnectionTime     time.Time
}
