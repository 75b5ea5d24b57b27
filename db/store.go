// Package db stores check-ins and contacts for the reference server. The
// server, not the client, owns the session lifecycle: one active check-in
// per (user, site), expiry when the clock passes expires, cancellation on
// request. Both ends of the lifecycle land in history as terminal records.
package db

import (
	"errors"
	"strings"
	"time"

	"github.com/fieldsafe/loneworker/types"
)

var (
	// ErrActiveExists rejects a check-in for a pair that already has one.
	ErrActiveExists = errors.New("an active check-in already exists for this user and site")

	// ErrNoActiveSession rejects a cancel with nothing to cancel.
	ErrNoActiveSession = errors.New("no active check-in found for this user and site")
)

type Store interface {
	// ActiveSessions closes any check-ins past their expiry and returns
	// the ones still open.
	ActiveSessions(now time.Time) ([]types.Session, error)

	// CheckIn opens a session for minutes from now.
	CheckIn(user, site string, minutes int, emergencyContact string, now time.Time) error

	// Cancel closes the open session for (user, site) at now.
	Cancel(user, site string, now time.Time) error

	// History returns every check-in record, open ones included.
	History() ([]types.HistoryRecord, error)

	Contacts() ([]types.Contact, error)
	AddContact(contact types.Contact) error

	Close() error
}

// lookupNotes resolves the notes of the contact a check-in references. The
// wire format carries contacts as a "name | phone" composite string, so
// match on the composite first and fall back to a bare name.
func lookupNotes(contacts []types.Contact, emergencyContact string) string {
	if emergencyContact == "" {
		return ""
	}
	for _, c := range contacts {
		if c.Name+" | "+c.Phone == emergencyContact {
			return c.Notes
		}
	}
	for _, c := range contacts {
		if c.Name == strings.TrimSpace(emergencyContact) {
			return c.Notes
		}
	}
	return ""
}
