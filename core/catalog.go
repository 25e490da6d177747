package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbital-sentinel/model"
	"github.com/signalsfoundry/orbital-sentinel/timectrl"
)

// catalogEntry seeds one tracked object. The TLE lines are synthesized from
// a fixed epoch template; only the fields that shape the orbit geometry
// (inclination, RAAN, mean motion) vary per object.
type catalogEntry struct {
	Name       string
	Owner      string // satcat owner code, decoded via model.CountryForOwner
	NoradID    uint32
	IntlDes    string
	InclDeg    float64
	RAANDeg    float64
	MeanMotion float64 // revolutions per day
}

// defaultEntries is a small LEO cross-section standing in for the Celestrak
// catalog pull a production deployment would do: payloads plus the debris
// clouds most often involved in conjunction screening.
var defaultEntries = []catalogEntry{
	{Name: "ISS (ZARYA)", Owner: "US", NoradID: 25544, IntlDes: "98067A", InclDeg: 51.6459, RAANDeg: 115.9059, MeanMotion: 15.49370953},
	{Name: "HST", Owner: "US", NoradID: 20580, IntlDes: "90037B", InclDeg: 28.4699, RAANDeg: 288.8102, MeanMotion: 15.09299865},
	{Name: "STARLINK-1130", Owner: "US", NoradID: 44932, IntlDes: "19074Y", InclDeg: 53.0539, RAANDeg: 201.5100, MeanMotion: 15.06391803},
	{Name: "NOAA 18", Owner: "US", NoradID: 28654, IntlDes: "05018A", InclDeg: 98.9902, RAANDeg: 341.5328, MeanMotion: 14.12501077},
	{Name: "COSMOS 2251 DEB", Owner: "CIS", NoradID: 34427, IntlDes: "93036SX", InclDeg: 74.0355, RAANDeg: 107.1421, MeanMotion: 14.31694911},
	{Name: "FENGYUN 1C DEB", Owner: "PRC", NoradID: 31113, IntlDes: "99025CQ", InclDeg: 98.8091, RAANDeg: 33.9062, MeanMotion: 14.05776293},
	{Name: "IRIDIUM 33 DEB", Owner: "US", NoradID: 33777, IntlDes: "97051L", InclDeg: 86.3953, RAANDeg: 261.0310, MeanMotion: 14.34707312},
	{Name: "SL-16 R/B", Owner: "CIS", NoradID: 22285, IntlDes: "92093A", InclDeg: 71.0089, RAANDeg: 55.8832, MeanMotion: 14.15226770},
}

// debrisMarkers flag an object as debris by name, the same heuristic the
// catalog ingest applies to Celestrak group names.
var debrisMarkers = []string{"DEB", "DEBRIS", "R/B", "ROCKET"}

// Vec3 is a position or velocity in the TEME frame (km, km/s).
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// earthRadiusKm is the mean Earth radius used for altitude derivation.
const earthRadiusKm = 6371.0

// ObjectState is a catalog object with its propagated state at some instant.
type ObjectState struct {
	Object   model.SpaceObject
	Position Vec3
	Velocity Vec3
}

// Catalog is the tracked-object set the telemetry generator draws
// conjunction pairs from. Objects are propagated with SGP4 at tick time.
type Catalog struct {
	objects []model.SpaceObject
	sats    []satellite.Satellite
	clock   timectrl.Clock
}

// NewCatalog builds the default catalog.
func NewCatalog(clock timectrl.Clock) *Catalog {
	if clock == nil {
		clock = timectrl.SystemClock{}
	}
	c := &Catalog{clock: clock}
	for _, e := range defaultEntries {
		line1, line2 := e.tle()
		sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
		c.sats = append(c.sats, sat)
		c.objects = append(c.objects, e.spaceObject(clock.Now()))
	}
	return c
}

// Objects returns a copy of the catalog's space objects.
func (c *Catalog) Objects() []model.SpaceObject {
	return append([]model.SpaceObject(nil), c.objects...)
}

// Len returns the number of catalog objects.
func (c *Catalog) Len() int { return len(c.objects) }

// State propagates every object to the given instant.
func (c *Catalog) State(now time.Time) []ObjectState {
	states := make([]ObjectState, 0, len(c.objects))
	year, month, day := now.Date()
	hour, min, sec := now.Clock()
	for i, sat := range c.sats {
		pos, vel := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
		states = append(states, ObjectState{
			Object:   c.objects[i],
			Position: Vec3{pos.X, pos.Y, pos.Z},
			Velocity: Vec3{vel.X, vel.Y, vel.Z},
		})
	}
	return states
}

// tle renders the entry into two TLE lines on a fixed epoch/drag template so
// the SGP4 parser sees standard column widths.
func (e catalogEntry) tle() (string, string) {
	line1 := fmt.Sprintf("1 %05dU %-8s 21275.59097222  .00000204  00000-0  10270-4 0  9990",
		e.NoradID, e.IntlDes)
	line2 := fmt.Sprintf("2 %05d %8.4f %8.4f 0001817  61.3028  35.9198 %11.8f257760",
		e.NoradID, e.InclDeg, e.RAANDeg, e.MeanMotion)
	return line1, line2
}

func (e catalogEntry) spaceObject(now time.Time) model.SpaceObject {
	objType := model.ObjectSatellite
	upper := strings.ToUpper(e.Name)
	for _, marker := range debrisMarkers {
		if strings.Contains(upper, marker) {
			objType = model.ObjectDebris
			break
		}
	}

	prefix := "SAT"
	if objType == model.ObjectDebris {
		prefix = "DEB"
	}

	alt := altitudeForMeanMotion(e.MeanMotion)

	return model.SpaceObject{
		ID:             fmt.Sprintf("%s-%d", prefix, e.NoradID),
		NoradID:        e.NoradID,
		Name:           e.Name,
		Type:           objType,
		Country:        model.CountryForOwner(e.Owner),
		LaunchDate:     launchDateFromDesignator(e.IntlDes),
		AltitudeKm:     alt,
		InclinationDeg: e.InclDeg,
		PeriodHours:    24.0 / e.MeanMotion,
		Active:         objType == model.ObjectSatellite,
		RiskLevel:      model.RiskLevelForAltitude(alt),
		LastUpdate:     now,
	}
}

// altitudeForMeanMotion derives a circular-orbit altitude in km from mean
// motion in revolutions per day.
func altitudeForMeanMotion(revsPerDay float64) float64 {
	if revsPerDay <= 0 {
		return 0
	}
	const muKm3s2 = 398600.4418
	n := revsPerDay * 2 * math.Pi / 86400.0 // rad/s
	semiMajor := math.Cbrt(muKm3s2 / (n * n))
	alt := semiMajor - earthRadiusKm
	if alt < 0 {
		alt = 0
	}
	return alt
}

// launchDateFromDesignator approximates the launch date from the
// international designator's two-digit year (values below 57 are 2000s).
func launchDateFromDesignator(des string) time.Time {
	if len(des) < 2 {
		return time.Time{}
	}
	yy, err := strconv.Atoi(des[:2])
	if err != nil {
		return time.Time{}
	}
	year := yy + 1900
	if yy < 57 {
		year = yy + 2000
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
