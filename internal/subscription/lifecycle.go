package subscription

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Action names the analytics event recorded for an inbound contact.
type Action string

const (
	ActionSignup          Action = "SIGNUP"
	ActionDuplicateSignup Action = "DUPLICATE_SIGNUP"
	ActionUnsubscribe     Action = "UNSUBSCRIBE"
)

// Carrier-standard opt-out keywords. Matching is case-insensitive and
// ignores diacritics and surrounding whitespace.
var stopKeywords = map[string]struct{}{
	"STOP":        {},
	"STOPALL":     {},
	"UNSUBSCRIBE": {},
	"CANCEL":      {},
	"END":         {},
	"QUIT":        {},
}

const (
	signupReply = "You are all set, we will keep you up to date on any road closures " +
		"for the next day. Check existing conditions here: cotrip.org/travelAlerts.htm"
	unsubscribeReply = "You have been unsubscribed from road closure notifications. " +
		`If you would like to join again reply with "START"`
)

// remove diacritics before keyword comparison
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	res, _, _ := transform.String(t, s)
	return res
}

// IsStopKeyword reports whether an inbound body is an opt-out request.
func IsStopKeyword(body string) bool {
	key := strings.ToUpper(stripAccents(strings.TrimSpace(body)))
	_, ok := stopKeywords[key]
	return ok
}

var (
	denverOnce sync.Once
	denverLoc  *time.Location
)

// expirations are shown to subscribers in the road network's local time
func denver() *time.Location {
	denverOnce.Do(func() {
		loc, err := time.LoadLocation("America/Denver")
		if err != nil {
			loc = time.FixedZone("MST", -7*60*60)
		}
		denverLoc = loc
	})
	return denverLoc
}

// FormatExpiration renders an expiry instant the way the duplicate-signup
// reply quotes it, e.g. "1/2 at 3:04 pm".
func FormatExpiration(t time.Time) string {
	return strings.ToLower(t.In(denver()).Format("1/2 at 3:04 PM"))
}

func duplicateReply(s Subscriber) string {
	return fmt.Sprintf("You are already signed up until %s, we will notify you with any road closures.",
		FormatExpiration(s.ExpiresAt))
}

// Outcome is the result of applying one inbound contact event.
type Outcome struct {
	// Roster is the roster to persist. When Changed is false it is the
	// input roster unmodified and no write is needed.
	Roster  Roster
	Changed bool
	// Reply is the confirmation text sent back to the sender.
	Reply string
	// Action is the analytics event to record.
	Action Action
	// Count is the roster size after the mutation, recorded on signups.
	Count int
}

// Apply runs the per-contact state machine. Unregistered numbers sign up,
// expired ones renew (observably identical to a fresh signup), active ones
// get told their current expiration, and a stop keyword removes the number
// regardless of prior state.
func Apply(roster Roster, number, body string, now time.Time) Outcome {
	if IsStopKeyword(body) {
		_, present := roster.Find(number)
		next := roster
		if present {
			next = roster.Without(number)
		}
		return Outcome{
			Roster:  next,
			Changed: present,
			Reply:   unsubscribeReply,
			Action:  ActionUnsubscribe,
			Count:   len(next),
		}
	}

	expiresAt := now.Add(Validity)
	existing, registered := roster.Find(number)

	switch {
	case !registered:
		next := append(roster.Without(number), Subscriber{Number: number, ExpiresAt: expiresAt})
		return Outcome{Roster: next, Changed: true, Reply: signupReply, Action: ActionSignup, Count: len(next)}
	case existing.Expired(now):
		next := append(roster.Without(number), Subscriber{Number: number, ExpiresAt: expiresAt})
		return Outcome{Roster: next, Changed: true, Reply: signupReply, Action: ActionSignup, Count: len(next)}
	default:
		return Outcome{Roster: roster, Changed: false, Reply: duplicateReply(existing), Action: ActionDuplicateSignup, Count: len(roster)}
	}
}
