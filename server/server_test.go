package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/loneworker/db"
	"github.com/fieldsafe/loneworker/types"
)

// testServer pins the clock so expiry behavior is deterministic.
type testServer struct {
	*Server
	now time.Time
}

func newTestServer() *testServer {
	ts := &testServer{
		Server: New(db.NewMemory()),
		now:    time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC),
	}
	ts.Server.now = func() time.Time { return ts.now }
	return ts
}

func (ts *testServer) advance(d time.Duration) { ts.now = ts.now.Add(d) }

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Router().ServeHTTP(w, req)
	return w
}

func TestCheckInThenActiveList(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, "POST", "/checkin/", types.CheckInRequest{
		UserID: "alice", Site: "Warehouse A", Minutes: 30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var ack types.Ack
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ack))
	assert.Contains(t, ack.Message, "alice")

	w = ts.do(t, "GET", "/checkins", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sessions []types.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "alice", sessions[0].User)
	assert.True(t, sessions[0].Expires.Equal(ts.now.Add(30*time.Minute)))
}

func TestDuplicateCheckInConflicts(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, "POST", "/checkin/", types.CheckInRequest{UserID: "alice", Site: "A", Minutes: 30})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "POST", "/checkin/", types.CheckInRequest{UserID: "alice", Site: "A", Minutes: 10})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Same user at a different site is a different pair.
	w = ts.do(t, "POST", "/checkin/", types.CheckInRequest{UserID: "alice", Site: "B", Minutes: 10})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckInValidation(t *testing.T) {
	ts := newTestServer()

	cases := []types.CheckInRequest{
		{UserID: "", Site: "A", Minutes: 10},
		{UserID: "alice", Site: "", Minutes: 10},
		{UserID: "alice", Site: "A", Minutes: 0},
		{UserID: "alice", Site: "A", Minutes: -5},
	}
	for _, req := range cases {
		w := ts.do(t, "POST", "/checkin/", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestCancelMovesSessionToHistory(t *testing.T) {
	ts := newTestServer()

	ts.do(t, "POST", "/checkin/", types.CheckInRequest{UserID: "alice", Site: "A", Minutes: 30})
	ts.advance(5 * time.Minute)

	w := ts.do(t, "POST", "/cancel_checkin/", types.CancelRequest{UserID: "alice", Site: "A"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, "GET", "/checkins", nil)
	var sessions []types.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sessions))
	assert.Empty(t, sessions)

	w = ts.do(t, "GET", "/checkin_history", nil)
	var records []types.HistoryRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	require.NotNil(t, records[0].CanceledAt)
	assert.Nil(t, records[0].ExpiredAt)
	assert.True(t, records[0].CanceledAt.Equal(ts.now))
}

func TestCancelWithoutActiveSessionIs404(t *testing.T) {
	ts := newTestServer()
	w := ts.do(t, "POST", "/cancel_checkin/", types.CancelRequest{UserID: "ghost", Site: "A"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpiryClosesSession(t *testing.T) {
	ts := newTestServer()

	ts.do(t, "POST", "/checkin/", types.CheckInRequest{UserID: "alice", Site: "A", Minutes: 30})
	expires := ts.now.Add(30 * time.Minute)
	ts.advance(31 * time.Minute)

	w := ts.do(t, "GET", "/checkins", nil)
	var sessions []types.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sessions))
	assert.Empty(t, sessions)

	w = ts.do(t, "GET", "/checkin_history", nil)
	var records []types.HistoryRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	require.NotNil(t, records[0].ExpiredAt)
	assert.Nil(t, records[0].CanceledAt)
	// expired_at records the expiry time, not when it was noticed.
	assert.True(t, records[0].ExpiredAt.Equal(expires))
}

func TestContactNotesResolvedOnCheckIn(t *testing.T) {
	ts := newTestServer()

	w := ts.do(t, "POST", "/add_contact", types.Contact{Name: "Bob", Phone: "555-0100", Notes: "supervisor"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, "GET", "/contacts", nil)
	var contacts []types.Contact
	require.NoError(t, json.NewDecoder(w.Body).Decode(&contacts))
	require.Len(t, contacts, 1)

	ts.do(t, "POST", "/checkin/", types.CheckInRequest{
		UserID: "alice", Site: "A", Minutes: 30, EmergencyContact: "Bob | 555-0100",
	})
	ts.advance(time.Minute)
	ts.do(t, "POST", "/cancel_checkin/", types.CancelRequest{UserID: "alice", Site: "A"})

	w = ts.do(t, "GET", "/checkin_history", nil)
	var records []types.HistoryRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Bob | 555-0100", records[0].EmergencyContact)
	assert.Equal(t, "supervisor", records[0].ContactNotes)
}

func TestAddContactValidation(t *testing.T) {
	ts := newTestServer()
	w := ts.do(t, "POST", "/add_contact", types.Contact{Name: "", Phone: "555"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.do(t, "POST", "/add_contact", types.Contact{Name: "Bob", Phone: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	ts := newTestServer()
	for _, path := range []string{"/checkins", "/checkin_history", "/contacts"} {
		w := ts.do(t, "GET", path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]\n", w.Body.String(), path)
	}
}
