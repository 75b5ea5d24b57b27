// Package client assembles the sync engine: gateway, cache, scheduler, and
// lifecycle controller behind one constructible object with an explicit
// Start/Stop lifecycle.
package client

import (
	"context"
	"log"
	"time"

	"github.com/fieldsafe/loneworker/cache"
	"github.com/fieldsafe/loneworker/controller"
	"github.com/fieldsafe/loneworker/gateway"
	"github.com/fieldsafe/loneworker/projector"
	"github.com/fieldsafe/loneworker/scheduler"
	"github.com/fieldsafe/loneworker/types"
)

type Config struct {
	// BaseURL of the check-in service; defaults to the hosted endpoint.
	BaseURL string
	// PollInterval between refresh cycles; defaults to 30s.
	PollInterval time.Duration
	// RequestTimeout for each network call; defaults to 10s.
	RequestTimeout time.Duration
	// Confirm guards cancellations. Nil skips confirmation, which only
	// makes sense for non-interactive callers that confirmed elsewhere.
	Confirm controller.ConfirmFunc
}

type Client struct {
	gw    *gateway.Client
	cache *cache.Cache
	sched *scheduler.Scheduler
	ctrl  *controller.Controller
}

func New(cfg Config) *Client {
	c := &Client{
		gw:    gateway.New(cfg.BaseURL, cfg.RequestTimeout),
		cache: cache.New(),
	}
	c.sched = scheduler.New(cfg.PollInterval, c.refresh)
	c.ctrl = controller.New(c.gw, c.sched, cfg.Confirm)
	return c
}

// Start begins background polling. The first cycle runs immediately.
func (c *Client) Start() { c.sched.Start() }

// Stop halts polling and waits for any in-flight cycle.
func (c *Client) Stop() { c.sched.Stop() }

// RefreshNow schedules an immediate coalesced refresh.
func (c *Client) RefreshNow() { c.sched.RefreshNow() }

// Refresh runs one synchronous fetch-and-replace cycle. One-shot callers
// use this instead of starting the scheduler.
func (c *Client) Refresh(ctx context.Context) error { return c.refresh(ctx) }

// CheckIn validates and submits a check-in ending at the HH:MM local
// checkout time, then refreshes both views.
func (c *Client) CheckIn(ctx context.Context, user, site, checkout, emergencyContact string) (string, error) {
	return c.ctrl.CheckIn(ctx, user, site, checkout, emergencyContact)
}

// Cancel ends the active session for (user, site) after confirmation.
func (c *Client) Cancel(ctx context.Context, user, site string) (string, error) {
	return c.ctrl.Cancel(ctx, user, site)
}

// Contacts lists the saved emergency contacts.
func (c *Client) Contacts(ctx context.Context) ([]types.Contact, error) {
	return c.gw.ListContacts(ctx)
}

// AddContact saves a new emergency contact.
func (c *Client) AddContact(ctx context.Context, name, phone, notes string) error {
	return c.gw.AddContact(ctx, name, phone, notes)
}

// Invalidate marks cached state stale; the next Display triggers a refresh.
func (c *Client) Invalidate() { c.cache.Invalidate() }

// Display projects the current cache into a display-ready model. When the
// cache is stale a running scheduler picks up a coalesced refresh and the
// snapshot is best effort; without one the refresh runs inline so one-shot
// callers still see current data.
func (c *Client) Display() projector.DisplayModel {
	if c.cache.Stale() {
		if c.sched.Started() {
			c.sched.RefreshNow()
		} else if err := c.refresh(context.Background()); err != nil {
			log.Printf("Refresh after invalidate failed: %v", err)
		}
	}
	return projector.Project(c.cache.Snapshot())
}

// Stats reports refresh-loop health plus current cache sizes.
func (c *Client) Stats() types.SyncStats {
	s := c.sched.Stats()
	snap := c.cache.Snapshot()
	return types.SyncStats{
		StartTime:          s.StartTime,
		LastUpdate:         s.LastUpdate,
		CompletedRefreshes: s.CompletedRefreshes,
		FailedRefreshes:    s.FailedRefreshes,
		ActiveSessions:     len(snap.Active),
		HistoryRecords:     len(snap.History),
	}
}

// refresh is the scheduler's cycle: fetch both lists and replace them under
// one sequence token. Failures leave previous data in place.
func (c *Client) refresh(ctx context.Context) error {
	seq := c.cache.Begin()

	sessions, activeErr := c.gw.ListActiveSessions(ctx)
	if activeErr != nil {
		c.cache.SetActiveError(seq, activeErr)
	} else {
		c.cache.ReplaceActive(seq, sessions)
	}

	records, historyErr := c.gw.ListHistory(ctx)
	if historyErr != nil {
		c.cache.SetHistoryError(seq, historyErr)
	} else {
		c.cache.ReplaceHistory(seq, records)
	}

	if activeErr != nil {
		return activeErr
	}
	return historyErr
}
