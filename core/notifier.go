package core

import "github.com/pkg/errors"

// ErrNotInitialized is returned when a notification is broadcast before the hub is started.
var ErrNotInitialized = errors.New("notifier not initialized")

// Realtime events broadcast to a library's room.
const (
	EventStudentCreated = "student:created"
	EventPaymentCreated = "payment:created"
)

// Notifier broadcasts events to the clients listening on a library's room.
// Delivery is fire-and-forget: at most once, no acknowledgement.
type Notifier interface {
	Broadcast(libraryID, event string, payload interface{}) error
}
