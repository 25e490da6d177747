package model

import "time"

// ObjectType distinguishes payloads from tracked junk.
type ObjectType string

const (
	ObjectSatellite ObjectType = "satellite"
	ObjectDebris    ObjectType = "debris"
)

// ObjectRiskLevel is a coarse collision-environment rating derived from the
// object's altitude band.
type ObjectRiskLevel string

const (
	ObjectRiskLow    ObjectRiskLevel = "low"
	ObjectRiskMedium ObjectRiskLevel = "medium"
	ObjectRiskHigh   ObjectRiskLevel = "high"
)

// SpaceObject is one entry of the tracked-object catalog as derived from TLE
// data. ID carries a SAT- or DEB- prefix depending on Type.
type SpaceObject struct {
	ID      string
	NoradID uint32
	Name    string
	Type    ObjectType

	// Country is decoded from the catalog owner code via CountryForOwner,
	// "Unknown" when the code is unrecognised.
	Country string
	// LaunchDate is approximated from the TLE epoch.
	LaunchDate time.Time

	AltitudeKm     float64
	InclinationDeg float64
	// PeriodHours is the orbital period derived from mean motion.
	PeriodHours float64

	Active     bool
	RiskLevel  ObjectRiskLevel
	LastUpdate time.Time
}

var countryByOwner = map[string]string{
	"US":  "USA",
	"CIS": "Russia",
	"PRC": "China",
	"ESA": "ESA",
	"FR":  "France",
	"JP":  "Japan",
	"IN":  "India",
	"CA":  "Canada",
	"UK":  "UK",
}

// CountryForOwner decodes a satellite-catalog owner code into a country
// name. Unrecognised codes decode to "Unknown".
func CountryForOwner(code string) string {
	if name, ok := countryByOwner[code]; ok {
		return name
	}
	return "Unknown"
}

// RiskLevelForAltitude maps an altitude in kilometres to the object risk
// band: below 500 km high, below 800 km medium, otherwise low.
func RiskLevelForAltitude(altitudeKm float64) ObjectRiskLevel {
	switch {
	case altitudeKm < 500:
		return ObjectRiskHigh
	case altitudeKm < 800:
		return ObjectRiskMedium
	default:
		return ObjectRiskLow
	}
}
