package model

import "time"

// AlertPriority buckets an alert's risk score into UI severity tiers.
type AlertPriority string

const (
	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"
)

// AlertStatus is the lifecycle state of an alert. Acknowledged is terminal:
// there is no transition back to active.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
)

// Risk thresholds mapping risk scores onto priorities. Priority is monotone
// in risk: [0, 0.3) low, [0.3, 0.6) medium, [0.6, 0.8) high, [0.8, 1] critical.
const (
	RiskMediumThreshold   = 0.3
	RiskHighThreshold     = 0.6
	RiskCriticalThreshold = 0.8
)

// PriorityForRisk returns the priority tier for a risk score in [0,1].
func PriorityForRisk(risk float64) AlertPriority {
	switch {
	case risk >= RiskCriticalThreshold:
		return PriorityCritical
	case risk >= RiskHighThreshold:
		return PriorityHigh
	case risk >= RiskMediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ObjectPair names the two tracked objects involved in a conjunction.
type ObjectPair struct {
	Primary   string
	Secondary string
}

// AlertItem is a predicted close approach between two tracked objects.
// ID is stable across the alert's lifetime; updates mutate the existing
// record in place, never duplicate it.
type AlertItem struct {
	ID       string
	Pair     ObjectPair
	Risk     float64 // in [0,1]
	Priority AlertPriority
	Status   AlertStatus

	// Time is the predicted closest-approach timestamp.
	Time time.Time

	MissDistanceKm   float64 // non-negative
	AltitudeKm       float64 // non-negative
	RelativeVelocity float64 // km/s, non-negative

	// ConfidenceLevel is optional; nil when the screening pipeline did not
	// produce one.
	ConfidenceLevel *float64 // in [0,1] when set

	ManeuverSuggested bool
}

// CriticalActive reports whether the alert is in the critical-active state
// (risk at or above the critical threshold and still active).
func (a AlertItem) CriticalActive() bool {
	return a.Risk >= RiskCriticalThreshold && a.Status == AlertActive
}
