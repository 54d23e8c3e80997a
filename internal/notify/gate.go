// Package notify decides whether a reconciliation result warrants a
// notification cycle and builds the outgoing message batch.
package notify

import (
	"github.com/closurewatch/closurewatch/internal/closure"
	"github.com/closurewatch/closurewatch/internal/message"
)

// ShouldNotify reports whether the cycle fires. Explicit emptiness checks:
// a cycle with nothing added and nothing removed sends no messages and
// writes no archive copy, though the fresh snapshot is still persisted.
func ShouldNotify(added, removed []closure.Alert) bool {
	return len(added) > 0 || len(removed) > 0
}

// BuildBatch renders the full message list for one cycle. New closures come
// first, reopenings after; every message in the batch goes to every valid
// recipient.
func BuildBatch(added, removed []closure.Alert) []string {
	batch := make([]string, 0, len(added)+len(removed))
	for _, a := range added {
		batch = append(batch, message.Closure(a))
	}
	for _, a := range removed {
		batch = append(batch, message.Opening(a))
	}
	return batch
}
