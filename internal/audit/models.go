package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block requests on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is zero for anonymous callers.
	ActorUserID int64 `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorStaff  bool  `json:"actor_staff" db:"actor_staff"`

	// IPAddress is the client IP as resolved by the router.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	Family   string `json:"family" db:"family"`
	Verb     string `json:"verb" db:"verb"`
	TargetID int64  `json:"target_id,omitempty" db:"target_id"`
	Reason   string `json:"reason,omitempty" db:"reason"`

	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeStaffBypass records any mutation a staff member made through the
	// bypass. Ownership is not resolved for staff, so this includes their own rows.
	EventTypeStaffBypass EventType = "staff_bypass"
	EventTypeDenied      EventType = "denied"
)
