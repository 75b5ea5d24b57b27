// Package projector maps a cache snapshot to a display-ready model. It
// performs no I/O, so any presentation layer (CLI, TUI, web) can consume it
// and the lifecycle logic stays testable without one.
package projector

import (
	"sort"
	"time"

	"github.com/fieldsafe/loneworker/cache"
	"github.com/fieldsafe/loneworker/types"
)

// Outcome classifies how a history record ended.
type Outcome string

const (
	OutcomeCanceled Outcome = "canceled"
	OutcomeExpired  Outcome = "expired"
	OutcomeOpen     Outcome = "open"
)

type ActiveEntry struct {
	User             string
	Site             string
	Expires          time.Time
	EmergencyContact string
}

type HistoryEntry struct {
	User             string
	Site             string
	CheckedInAt      time.Time
	EndedAt          time.Time
	Outcome          Outcome
	EmergencyContact string
	ContactNotes     string
}

// DisplayModel separates active entries (insertion order preserved) from
// history entries sorted by end time, newest first.
type DisplayModel struct {
	Active  []ActiveEntry
	History []HistoryEntry

	// Unavailable flags mark sections that have never loaded and whose
	// last refresh failed; the section renders a failed-to-load
	// placeholder instead of an empty list.
	ActiveUnavailable  bool
	HistoryUnavailable bool
}

// Project builds the display model from a snapshot.
func Project(snap cache.Snapshot) DisplayModel {
	model := DisplayModel{
		ActiveUnavailable:  !snap.ActiveLoaded && snap.ActiveErr != nil,
		HistoryUnavailable: !snap.HistoryLoaded && snap.HistoryErr != nil,
	}

	for _, s := range snap.Active {
		model.Active = append(model.Active, ActiveEntry{
			User:             s.User,
			Site:             s.Site,
			Expires:          s.Expires,
			EmergencyContact: s.EmergencyContact,
		})
	}

	for _, r := range snap.History {
		model.History = append(model.History, HistoryEntry{
			User:             r.User,
			Site:             r.Site,
			CheckedInAt:      r.CheckedInAt,
			EndedAt:          r.EndedAt(),
			Outcome:          outcome(r),
			EmergencyContact: r.EmergencyContact,
			ContactNotes:     r.ContactNotes,
		})
	}
	sort.SliceStable(model.History, func(i, j int) bool {
		return model.History[i].EndedAt.After(model.History[j].EndedAt)
	})

	return model
}

func outcome(r types.HistoryRecord) Outcome {
	if !r.Closed() {
		return OutcomeOpen
	}
	if r.CanceledAt != nil {
		return OutcomeCanceled
	}
	return OutcomeExpired
}
