// Package controller validates and submits check-in and cancel requests.
// Each (user, site) pair moves Absent -> Pending -> Active -> Closed; the
// server is the authority for Active and Closed, while Pending is tracked
// here so a duplicate submission cannot fire while one is in flight.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Gateway is the slice of the remote API the controller mutates through.
type Gateway interface {
	SubmitCheckIn(ctx context.Context, user, site string, minutes int, emergencyContact string) (string, error)
	CancelSession(ctx context.Context, user, site string) (string, error)
}

// Refresher re-syncs local state after a successful mutation. One refresh
// cycle covers both the active list and history; both can change together.
type Refresher interface {
	RefreshNow()
}

// ConfirmFunc asks the user to confirm an irreversible cancellation.
type ConfirmFunc func(user, site string) bool

// ValidationError is bad user input caught before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	// ErrSubmissionInFlight rejects a duplicate check-in for a pair whose
	// previous submission has not resolved yet.
	ErrSubmissionInFlight = errors.New("a check-in for this user and site is already being submitted")

	// ErrCancelDeclined means the user did not confirm the cancellation.
	ErrCancelDeclined = errors.New("cancellation not confirmed")
)

type key struct {
	user string
	site string
}

type Controller struct {
	gw        Gateway
	refresher Refresher
	confirm   ConfirmFunc
	now       func() time.Time

	mu      sync.Mutex
	pending map[key]struct{}
}

func New(gw Gateway, refresher Refresher, confirm ConfirmFunc) *Controller {
	return &Controller{
		gw:        gw,
		refresher: refresher,
		confirm:   confirm,
		now:       time.Now,
		pending:   make(map[key]struct{}),
	}
}

// CheckIn validates the input, converts the HH:MM checkout time into a
// whole-minute duration, and submits. On success both views are refreshed.
func (c *Controller) CheckIn(ctx context.Context, user, site, checkout, emergencyContact string) (string, error) {
	user = strings.TrimSpace(user)
	site = strings.TrimSpace(site)
	if user == "" {
		return "", &ValidationError{Reason: "user must not be empty"}
	}
	if site == "" {
		return "", &ValidationError{Reason: "site must not be empty"}
	}
	minutes, err := MinutesUntil(checkout, c.now())
	if err != nil {
		return "", err
	}

	k := key{user: user, site: site}
	if !c.markPending(k) {
		return "", ErrSubmissionInFlight
	}
	defer c.clearPending(k)

	msg, err := c.gw.SubmitCheckIn(ctx, user, site, minutes, emergencyContact)
	if err != nil {
		// No session was created; the pair is Absent again.
		return "", err
	}
	c.refresher.RefreshNow()
	return msg, nil
}

// Cancel ends the active session for (user, site) after explicit
// confirmation. Canceling moves a record from active to history, so both
// views are refreshed on success.
func (c *Controller) Cancel(ctx context.Context, user, site string) (string, error) {
	user = strings.TrimSpace(user)
	site = strings.TrimSpace(site)
	if user == "" {
		return "", &ValidationError{Reason: "user must not be empty"}
	}
	if site == "" {
		return "", &ValidationError{Reason: "site must not be empty"}
	}
	if c.confirm != nil && !c.confirm(user, site) {
		return "", ErrCancelDeclined
	}

	msg, err := c.gw.CancelSession(ctx, user, site)
	if err != nil {
		return "", err
	}
	c.refresher.RefreshNow()
	return msg, nil
}

func (c *Controller) markPending(k key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[k]; exists {
		return false
	}
	c.pending[k] = struct{}{}
	return true
}

func (c *Controller) clearPending(k key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, k)
}

// MinutesUntil parses an HH:MM checkout time in now's location and returns
// the whole-minute duration from now, rounded up. The target must be
// strictly in the future.
func MinutesUntil(checkout string, now time.Time) (int, error) {
	parts := strings.Split(checkout, ":")
	if len(parts) != 2 {
		return 0, &ValidationError{Reason: fmt.Sprintf("checkout time %q must be HH:MM", checkout)}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, &ValidationError{Reason: fmt.Sprintf("checkout hour %q must be 0-23", parts[0])}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, &ValidationError{Reason: fmt.Sprintf("checkout minute %q must be 0-59", parts[1])}
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	delta := target.Sub(now)
	if delta <= 0 {
		return 0, &ValidationError{Reason: "checkout time must be in the future"}
	}
	minutes := int((delta + time.Minute - 1) / time.Minute)
	return minutes, nil
}
