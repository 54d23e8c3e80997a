// Package closure holds the domain model for roadway closure alerts.
package closure

// Kind classifies how much of the roadway a closure takes out.
type Kind string

const (
	KindFull    Kind = "full"
	KindPartial Kind = "partial"
)

// fullClosureCode is the upstream RoadwayClosureId value that marks a
// closure of the entire roadway.
const fullClosureCode = "4"

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Alert is one roadway closure or advisory record from the upstream feed.
// ID is the only identity: a surviving ID with changed fields is the same
// closure, and an ID that disappears from the feed means the road reopened.
type Alert struct {
	ID                  string    `json:"id"`
	RoadName            string    `json:"roadName"`
	Description         string    `json:"description"`
	LocationDescription string    `json:"locationDescription"`
	Direction           string    `json:"direction"`
	BothDirections      bool      `json:"bothDirections"`
	StartMileMarker     string    `json:"startMileMarker"`
	EndMileMarker       string    `json:"endMileMarker,omitempty"`
	RoadwayClosureID    string    `json:"roadwayClosureId"`
	Location            *Location `json:"location,omitempty"`
}

// Kind derives the closure severity from the upstream closure code.
func (a Alert) Kind() Kind {
	if a.RoadwayClosureID == fullClosureCode {
		return KindFull
	}
	return KindPartial
}

// HasLocation reports whether the alert carries coordinates. Alerts
// without coordinates cannot be matched against the regional bounds.
func (a Alert) HasLocation() bool {
	return a.Location != nil
}

// Snapshot is the set of closures open as of the last successful cycle.
// It is replaced wholesale each cycle, never mutated in place.
type Snapshot []Alert

// IDs returns the set of alert IDs present in the snapshot.
func (s Snapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s))
	for _, a := range s {
		ids[a.ID] = struct{}{}
	}
	return ids
}
