// Package message renders closure and reopening records into the SMS text
// sent to subscribers.
package message

import (
	"fmt"

	"github.com/closurewatch/closurewatch/internal/closure"
)

func directionClause(a closure.Alert) string {
	if a.BothDirections {
		return "in both directions"
	}
	return fmt.Sprintf("going %s", a.Direction)
}

func extentClause(a closure.Alert) string {
	if a.EndMileMarker != "" {
		return fmt.Sprintf("from mile marker %s to %s", a.StartMileMarker, a.EndMileMarker)
	}
	return fmt.Sprintf("at mile marker %s", a.StartMileMarker)
}

func locationSuffix(a closure.Alert) string {
	if a.LocationDescription == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.LocationDescription)
}

// Closure formats a new-closure notification.
func Closure(a closure.Alert) string {
	return fmt.Sprintf("New (%s) closure on %s %s %s%s. From CODOT: %s",
		a.Kind(), a.RoadName, directionClause(a), extentClause(a), locationSuffix(a), a.Description)
}

// Opening formats a road-reopened notification.
func Opening(a closure.Alert) string {
	return fmt.Sprintf("Road reopened on %s %s %s%s.",
		a.RoadName, directionClause(a), extentClause(a), locationSuffix(a))
}
