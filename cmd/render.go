package cmd

import (
	"fmt"
	"strings"

	"github.com/fieldsafe/loneworker/projector"
)

// The render helpers are the only place display formatting lives; the
// projector stays free of presentation concerns.

func renderActive(model projector.DisplayModel) string {
	var b strings.Builder
	b.WriteString("Active check-ins:\n")
	switch {
	case model.ActiveUnavailable:
		b.WriteString("  (failed to load)\n")
	case len(model.Active) == 0:
		b.WriteString("  No active check-ins.\n")
	default:
		for _, e := range model.Active {
			line := fmt.Sprintf("  %s at %s (expires at %s)", e.User, e.Site, e.Expires.Local().Format("15:04"))
			if e.EmergencyContact != "" {
				line += fmt.Sprintf(" [contact: %s]", e.EmergencyContact)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func renderHistory(model projector.DisplayModel) string {
	var b strings.Builder
	b.WriteString("Check-in history:\n")
	switch {
	case model.HistoryUnavailable:
		b.WriteString("  (failed to load)\n")
	case len(model.History) == 0:
		b.WriteString("  No history.\n")
	default:
		for _, e := range model.History {
			b.WriteString(fmt.Sprintf("  %s at %s, checked in %s, %s %s\n",
				e.User, e.Site,
				e.CheckedInAt.Local().Format("Jan 2 15:04"),
				e.Outcome,
				e.EndedAt.Local().Format("Jan 2 15:04")))
		}
	}
	return b.String()
}
