package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/loneworker/types"
)

var t0 = time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)

func TestCheckIn_OneActivePerPair(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.CheckIn("alice", "A", 30, "", t0))
	assert.ErrorIs(t, m.CheckIn("alice", "A", 10, "", t0), ErrActiveExists)
	require.NoError(t, m.CheckIn("alice", "B", 10, "", t0))
	require.NoError(t, m.CheckIn("bob", "A", 10, "", t0))

	sessions, err := m.ActiveSessions(t0)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

// Once the previous session has expired the pair is free again.
func TestCheckIn_AllowedAfterExpiry(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CheckIn("alice", "A", 30, "", t0))

	later := t0.Add(31 * time.Minute)
	require.NoError(t, m.CheckIn("alice", "A", 30, "", later))

	records, err := m.History()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].ExpiredAt)
	assert.True(t, records[0].ExpiredAt.Equal(t0.Add(30*time.Minute)))
	assert.Nil(t, records[1].ExpiredAt)
}

func TestCancel_ClosesOnlyTargetPair(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CheckIn("alice", "A", 30, "", t0))
	require.NoError(t, m.CheckIn("alice", "B", 30, "", t0))

	require.NoError(t, m.Cancel("alice", "A", t0.Add(time.Minute)))
	assert.ErrorIs(t, m.Cancel("alice", "A", t0.Add(time.Minute)), ErrNoActiveSession)

	sessions, err := m.ActiveSessions(t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "B", sessions[0].Site)
}

func TestCancelExpiredSessionFails(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CheckIn("alice", "A", 5, "", t0))
	assert.ErrorIs(t, m.Cancel("alice", "A", t0.Add(10*time.Minute)), ErrNoActiveSession)
}

func TestLookupNotes(t *testing.T) {
	contacts := []types.Contact{
		{Name: "Bob", Phone: "555-0100", Notes: "supervisor"},
		{Name: "Carol", Phone: "555-0199", Notes: "site manager"},
	}
	assert.Equal(t, "supervisor", lookupNotes(contacts, "Bob | 555-0100"))
	assert.Equal(t, "site manager", lookupNotes(contacts, "Carol"))
	assert.Equal(t, "", lookupNotes(contacts, "Dave | 555-0000"))
	assert.Equal(t, "", lookupNotes(contacts, ""))
}
