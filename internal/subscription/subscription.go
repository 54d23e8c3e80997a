// Package subscription manages the phone-number roster and the lifecycle of
// a single inbound contact event.
package subscription

import (
	"time"
)

// Validity is how long a signup or renewal lasts.
const Validity = 24 * time.Hour

// Subscriber is one phone-number registration. Number is the identity key;
// the subscription is valid while now < ExpiresAt.
type Subscriber struct {
	Number    string    `json:"number"`
	ExpiresAt time.Time `json:"expiration"`
}

// Expired reports whether the subscription has lapsed at the given instant.
func (s Subscriber) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Roster is the full subscriber set, persisted as a whole on every mutation.
// At most one entry per number.
type Roster []Subscriber

// Find returns the subscriber for a number, if registered.
func (r Roster) Find(number string) (Subscriber, bool) {
	for _, s := range r {
		if s.Number == number {
			return s, true
		}
	}
	return Subscriber{}, false
}

// Without returns a copy of the roster with the given number removed.
func (r Roster) Without(number string) Roster {
	out := make(Roster, 0, len(r))
	for _, s := range r {
		if s.Number != number {
			out = append(out, s)
		}
	}
	return out
}

// Active returns the entries still valid at now. It selects notification
// recipients and doubles as the pruned roster persisted after a
// notification cycle.
func (r Roster) Active(now time.Time) Roster {
	out := make(Roster, 0, len(r))
	for _, s := range r {
		if s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	return out
}

// Numbers returns the phone numbers in roster order.
func (r Roster) Numbers() []string {
	out := make([]string, 0, len(r))
	for _, s := range r {
		out = append(out, s.Number)
	}
	return out
}
