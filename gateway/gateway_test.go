package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsafe/loneworker/types"
)

func TestListActiveSessions(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/checkins", r.URL.Path)
		json.NewEncoder(w).Encode([]types.Session{
			{User: "alice", Site: "Warehouse A", Expires: expires},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	sessions, err := c.ListActiveSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "alice", sessions[0].User)
	assert.Equal(t, "Warehouse A", sessions[0].Site)
	assert.True(t, expires.Equal(sessions[0].Expires))
}

func TestSubmitCheckIn_SendsWireFields(t *testing.T) {
	var got types.CheckInRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkin/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.Ack{Message: "Checked in"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	msg, err := c.SubmitCheckIn(context.Background(), "alice", "Warehouse A", 30, "Bob | 555-0100")
	require.NoError(t, err)
	assert.Equal(t, "Checked in", msg)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, "Warehouse A", got.Site)
	assert.Equal(t, 30, got.Minutes)
	assert.Equal(t, "Bob | 555-0100", got.EmergencyContact)
}

func TestCancelSession(t *testing.T) {
	var got types.CancelRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cancel_checkin/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(types.Ack{Message: "Canceled"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	msg, err := c.CancelSession(context.Background(), "alice", "Warehouse A")
	require.NoError(t, err)
	assert.Equal(t, "Canceled", msg)
	assert.Equal(t, types.CancelRequest{UserID: "alice", Site: "Warehouse A"}, got)
}

func TestServerError_CarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "already checked in", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.SubmitCheckIn(context.Background(), "alice", "Warehouse A", 30, "")
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusConflict, serr.StatusCode)
	assert.Equal(t, "already checked in", serr.Body)
}

func TestNetworkError_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, 0)
	_, err := c.ListActiveSessions(context.Background())
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.ListHistory(context.Background())
	var merr *MalformedResponseError
	require.ErrorAs(t, err, &merr)
}

func TestListContactsAndAdd(t *testing.T) {
	var added types.Contact
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacts":
			json.NewEncoder(w).Encode([]types.Contact{{Name: "Bob", Phone: "555-0100", Notes: "supervisor"}})
		case "/add_contact":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	contacts, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bob", contacts[0].Name)

	require.NoError(t, c.AddContact(context.Background(), "Carol", "555-0199", ""))
	assert.Equal(t, "Carol", added.Name)
	assert.Equal(t, "555-0199", added.Phone)
}
