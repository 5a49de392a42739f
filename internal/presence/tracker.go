// Package presence keeps the roster of users currently online in a room.
//
// The roster is only ever replaced by a full snapshot from the server.
// Join/leave notices never patch it; the session asks the server for a fresh
// snapshot instead.
package presence

// Tracker holds the last received roster in server order.
// It is not safe for concurrent use; the session loop is its only caller.
type Tracker struct {
	users []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{users: []string{}}
}

// Replace swaps the roster for a copy of users. Order and duplicates are kept as received.
func (t *Tracker) Replace(users []string) {
	next := make([]string, len(users))
	copy(next, users)
	t.users = next
}

// Users returns a copy of the current roster.
func (t *Tracker) Users() []string {
	out := make([]string, len(t.users))
	copy(out, t.users)
	return out
}

// Len reports how many users are online.
func (t *Tracker) Len() int {
	return len(t.users)
}

// Reset empties the roster when the session ends.
func (t *Tracker) Reset() {
	t.users = []string{}
}
