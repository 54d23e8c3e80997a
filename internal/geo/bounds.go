// Package geo filters alerts against a fixed regional bounding box.
package geo

import "github.com/closurewatch/closurewatch/internal/closure"

// Bounds is a closed lat/lon interval pair. Both edges are inclusive.
type Bounds struct {
	SouthLat float64
	NorthLat float64
	WestLon  float64
	EastLon  float64
}

// Contains reports whether the point falls inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.SouthLat && lat <= b.NorthLat &&
		lon >= b.WestLon && lon <= b.EastLon
}

// Includes reports whether an alert qualifies for notification. Alerts
// without coordinates are excluded, not passed through.
func (b Bounds) Includes(a closure.Alert) bool {
	if !a.HasLocation() {
		return false
	}
	return b.Contains(a.Location.Latitude, a.Location.Longitude)
}

// Filter returns the subset of alerts inside the bounds.
func (b Bounds) Filter(alerts []closure.Alert) []closure.Alert {
	out := make([]closure.Alert, 0, len(alerts))
	for _, a := range alerts {
		if b.Includes(a) {
			out = append(out, a)
		}
	}
	return out
}
