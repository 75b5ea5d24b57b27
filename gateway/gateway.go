// Package gateway wraps the remote check-in API behind typed operations.
// Every operation is one network round trip; failures are classified as
// NetworkError, ServerError, or MalformedResponseError and surfaced to the
// caller without retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldsafe/loneworker/types"
)

// DefaultBaseURL is the hosted check-in service.
const DefaultBaseURL = "https://loneworking-production.up.railway.app"

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ListActiveSessions fetches all currently active check-ins.
func (c *Client) ListActiveSessions(ctx context.Context) ([]types.Session, error) {
	var sessions []types.Session
	if err := c.get(ctx, "list active sessions", "/checkins", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SubmitCheckIn creates a check-in for minutes from now and returns the
// server's acknowledgment message. Validation happens upstream; the server
// is authoritative and may still reject the request.
func (c *Client) SubmitCheckIn(ctx context.Context, user, site string, minutes int, emergencyContact string) (string, error) {
	req := types.CheckInRequest{
		UserID:           user,
		Site:             site,
		Minutes:          minutes,
		EmergencyContact: emergencyContact,
	}
	var ack types.Ack
	if err := c.post(ctx, "submit check-in", "/checkin/", req, &ack); err != nil {
		return "", err
	}
	return ack.Message, nil
}

// CancelSession cancels the active check-in for (user, site).
func (c *Client) CancelSession(ctx context.Context, user, site string) (string, error) {
	req := types.CancelRequest{UserID: user, Site: site}
	var ack types.Ack
	if err := c.post(ctx, "cancel session", "/cancel_checkin/", req, &ack); err != nil {
		return "", err
	}
	return ack.Message, nil
}

// ListHistory fetches the terminal records of past check-ins.
func (c *Client) ListHistory(ctx context.Context) ([]types.HistoryRecord, error) {
	var records []types.HistoryRecord
	if err := c.get(ctx, "list history", "/checkin_history", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ListContacts fetches the saved emergency contacts.
func (c *Client) ListContacts(ctx context.Context) ([]types.Contact, error) {
	var contacts []types.Contact
	if err := c.get(ctx, "list contacts", "/contacts", &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// AddContact saves a new emergency contact.
func (c *Client) AddContact(ctx context.Context, name, phone, notes string) error {
	req := types.Contact{Name: name, Phone: phone, Notes: notes}
	return c.post(ctx, "add contact", "/add_contact", req, nil)
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}
