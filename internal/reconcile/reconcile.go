// Package reconcile computes the set difference between two closure
// snapshots, keyed by alert ID.
package reconcile

import "github.com/closurewatch/closurewatch/internal/closure"

// Diff compares the previous and current snapshots by alert ID.
//
// added holds alerts in current whose ID was not in previous; removed holds
// alerts in previous whose ID is no longer in current. Field changes on a
// surviving ID are ignored. The result does not depend on input ordering.
//
// A nil previous snapshot (first run, no state file yet) is a distinguished
// case with no added/removed semantics; callers detect it with FirstRun.
func Diff(previous, current closure.Snapshot) (added, removed []closure.Alert) {
	prevIDs := previous.IDs()
	curIDs := current.IDs()

	added = make([]closure.Alert, 0)
	for _, a := range current {
		if _, ok := prevIDs[a.ID]; !ok {
			added = append(added, a)
		}
	}
	removed = make([]closure.Alert, 0)
	for _, a := range previous {
		if _, ok := curIDs[a.ID]; !ok {
			removed = append(removed, a)
		}
	}
	return added, removed
}

// FirstRun reports whether there is no prior snapshot to reconcile against.
// The distinction matters: a nil snapshot means no state file existed, while
// an empty non-nil snapshot means the previous cycle observed zero closures.
func FirstRun(previous closure.Snapshot) bool {
	return previous == nil
}
