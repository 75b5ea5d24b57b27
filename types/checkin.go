package types

import "time"

// Session is an active check-in: a user present at a site until Expires.
type Session struct {
	User             string    `json:"user"`
	Site             string    `json:"site"`
	Expires          time.Time `json:"expires"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
}

// HistoryRecord is the terminal record of a past check-in. At most one of
// CanceledAt and ExpiredAt is set; a record with neither is still open.
type HistoryRecord struct {
	User             string     `json:"user"`
	Site             string     `json:"site"`
	CheckedInAt      time.Time  `json:"checked_in_at"`
	ExpiredAt        *time.Time `json:"expired_at,omitempty"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
	EmergencyContact string     `json:"emergency_contact,omitempty"`
	ContactNotes     string     `json:"contact_notes,omitempty"`
}

// EndedAt returns the time that orders this record in history views:
// cancellation time, else expiry time, else the check-in time for records
// that are still open.
func (r HistoryRecord) EndedAt() time.Time {
	if r.CanceledAt != nil {
		return *r.CanceledAt
	}
	if r.ExpiredAt != nil {
		return *r.ExpiredAt
	}
	return r.CheckedInAt
}

// Closed reports whether the record has a terminal timestamp.
func (r HistoryRecord) Closed() bool {
	return r.CanceledAt != nil || r.ExpiredAt != nil
}

// Contact is a reusable emergency contact.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

// CheckInRequest is the body of POST /checkin/.
type CheckInRequest struct {
	UserID           string `json:"user_id"`
	Site             string `json:"site"`
	Minutes          int    `json:"minutes"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// CancelRequest is the body of POST /cancel_checkin/.
type CancelRequest struct {
	UserID string `json:"user_id"`
	Site   string `json:"site"`
}

// Ack is the acknowledgment payload returned by mutation endpoints.
type Ack struct {
	Message string `json:"message"`
}
