package core

import "github.com/signalsfoundry/orbital-sentinel/bus"

// Well-known channels and their payload types. The bus namespace stays open,
// but these are the channels the service publishes on; typed subscribe
// helpers on Service check payloads against these shapes at the boundary.
const (
	// ChannelAlerts carries []model.AlertItem sorted by descending risk.
	ChannelAlerts bus.Channel = "alerts"
	// ChannelLogs carries []model.SystemLog, newest-last.
	ChannelLogs bus.Channel = "logs"
	// ChannelConnection carries a model.RealTimeConnection snapshot.
	ChannelConnection bus.Channel = "connection"
	// ChannelSettings carries a model.Settings snapshot.
	ChannelSettings bus.Channel = "settings"
	// ChannelNotifications carries one model.AlertItem each time an alert
	// transitions into the critical-active state.
	ChannelNotifications bus.Channel = "notifications"
)
