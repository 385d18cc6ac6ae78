// Package queue publishes auth lifecycle events to the message broker.
package queue

// UserEvent is the payload published on signup and logout.  It carries
// enough for downstream consumers (welcome mail, audit trail) without
// querying the primary database.
type UserEvent struct {
	EventID    string `json:"event_id"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	OccurredAt string `json:"occurred_at"`
}

// Queue names, durable on the broker side.
const (
	QueueUserSignedUp  = "auth.user_signed_up"
	QueueUserLoggedOut = "auth.user_logged_out"
)
