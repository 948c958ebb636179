package services

import (
	"time"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
)

// Counts are the badge aggregates. They are always computed from the
// unfiltered collection so badges reflect totals regardless of which
// tab is active.
type Counts struct {
	// Statuses maps each status to its count; All is the collection
	// size and always equals the sum of the five per-status counts.
	Statuses map[domain.TicketStatus]int `json:"statuses"`
	All      int                         `json:"all"`

	// Locations maps each canonical location (plus NoLocation) to its
	// count; LocationsAll mirrors All.
	Locations    map[string]int `json:"locations"`
	LocationsAll int            `json:"locationsAll"`

	// UrgentByLocation counts tickets needing attention per location:
	// open or in-progress, and urgent-flagged or 72h old.
	UrgentByLocation map[string]int `json:"urgentByLocation"`
}

// Aggregate computes badge counts over the full collection. now is
// captured once per render pass by the caller so the urgency cutoffs
// do not flicker between tickets.
func Aggregate(tickets []domain.Ticket, now time.Time) Counts {
	counts := Counts{
		Statuses:         make(map[domain.TicketStatus]int, len(domain.AllStatuses)),
		Locations:        make(map[string]int),
		UrgentByLocation: make(map[string]int),
	}
	for _, status := range domain.AllStatuses {
		counts.Statuses[status] = 0
	}

	for _, t := range tickets {
		counts.Statuses[t.Status]++
		counts.All++

		key := locationKey(t)
		counts.Locations[key]++
		counts.LocationsAll++

		if t.NeedsAttention(now) {
			counts.UrgentByLocation[key]++
		}
	}
	return counts
}
