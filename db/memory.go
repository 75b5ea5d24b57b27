package db

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsafe/loneworker/types"
)

// Memory is an in-process Store used by tests and `serve --memory`.
type Memory struct {
	mu       sync.Mutex
	records  []*memRecord
	contacts []types.Contact
}

type memRecord struct {
	id               string
	user             string
	site             string
	checkedInAt      time.Time
	expires          time.Time
	canceledAt       *time.Time
	expiredAt        *time.Time
	emergencyContact string
	contactNotes     string
}

func (r *memRecord) open() bool {
	return r.canceledAt == nil && r.expiredAt == nil
}

func NewMemory() *Memory {
	return &Memory{}
}

// expire closes overdue records, stamping expired_at with the expiry time
// itself rather than the observation time.
func (m *Memory) expire(now time.Time) {
	for _, r := range m.records {
		if r.open() && !now.Before(r.expires) {
			expiredAt := r.expires
			r.expiredAt = &expiredAt
		}
	}
}

func (m *Memory) ActiveSessions(now time.Time) ([]types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(now)

	sessions := []types.Session{}
	for _, r := range m.records {
		if r.open() {
			sessions = append(sessions, types.Session{
				User:             r.user,
				Site:             r.site,
				Expires:          r.expires,
				EmergencyContact: r.emergencyContact,
			})
		}
	}
	return sessions, nil
}

func (m *Memory) CheckIn(user, site string, minutes int, emergencyContact string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(now)

	for _, r := range m.records {
		if r.open() && r.user == user && r.site == site {
			return ErrActiveExists
		}
	}
	m.records = append(m.records, &memRecord{
		id:               uuid.NewString(),
		user:             user,
		site:             site,
		checkedInAt:      now,
		expires:          now.Add(time.Duration(minutes) * time.Minute),
		emergencyContact: emergencyContact,
		contactNotes:     lookupNotes(m.contacts, emergencyContact),
	})
	return nil
}

func (m *Memory) Cancel(user, site string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expire(now)

	for _, r := range m.records {
		if r.open() && r.user == user && r.site == site {
			canceledAt := now
			r.canceledAt = &canceledAt
			return nil
		}
	}
	return ErrNoActiveSession
}

func (m *Memory) History() ([]types.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := []types.HistoryRecord{}
	for _, r := range m.records {
		records = append(records, types.HistoryRecord{
			User:             r.user,
			Site:             r.site,
			CheckedInAt:      r.checkedInAt,
			CanceledAt:       r.canceledAt,
			ExpiredAt:        r.expiredAt,
			EmergencyContact: r.emergencyContact,
			ContactNotes:     r.contactNotes,
		})
	}
	return records, nil
}

func (m *Memory) Contacts() ([]types.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contacts := make([]types.Contact, len(m.contacts))
	copy(contacts, m.contacts)
	return contacts, nil
}

func (m *Memory) AddContact(contact types.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, contact)
	return nil
}

func (m *Memory) Close() error { return nil }
