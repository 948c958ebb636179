package services

import (
	"sort"

	"github.com/lorrc/ops-console-engine/internal/core/domain"
)

// Tab is the top-level view split of the ticket center.
type Tab string

const (
	TabActive   Tab = "active"
	TabResolved Tab = "resolved"
	TabArchived Tab = "archived"
)

// IsValid reports whether the tab is one of the three known views.
func (t Tab) IsValid() bool {
	return t == TabActive || t == TabResolved || t == TabArchived
}

// Matches reports whether a ticket status belongs on this tab. The
// three tabs partition the five statuses exactly.
func (t Tab) Matches(status domain.TicketStatus) bool {
	switch t {
	case TabActive:
		return status == domain.StatusOpen || status == domain.StatusInProgress
	case TabResolved:
		return status == domain.StatusResolved || status == domain.StatusClosed
	case TabArchived:
		return status == domain.StatusArchived
	}
	return false
}

// GroupMode selects how the filtered tickets are bucketed. At most one
// mode is active at a time.
type GroupMode string

const (
	GroupNone       GroupMode = "none"
	GroupByLocation GroupMode = "location"
	GroupByProvince GroupMode = "province"
)

// IsValid reports whether the group mode is known.
func (g GroupMode) IsValid() bool {
	return g == GroupNone || g == GroupByLocation || g == GroupByProvince
}

// StatusFilterAll disables the secondary status filter.
const StatusFilterAll = "all"

// Query captures the view inputs: active tab, optional exact status
// filter, and the grouping mode. The category filter is applied
// upstream at the gateway query, never locally.
type Query struct {
	Tab    Tab       `json:"tab"`
	Status string    `json:"status,omitempty"` // "" or "all" for no filter
	Group  GroupMode `json:"group,omitempty"`
}

// LocationBucket is one location's slice of the filtered view.
type LocationBucket struct {
	Location string          `json:"location"`
	Tickets  []domain.Ticket `json:"tickets"`
}

// ProvinceGroup is one province's set of location buckets. Empty
// branches are omitted from the view.
type ProvinceGroup struct {
	Province string           `json:"province"`
	Buckets  []LocationBucket `json:"buckets"`
}

// View is the derived, read-only projection handed to the rendering
// layer. Exactly one of Tickets, Buckets, Provinces is populated,
// according to the query's group mode.
type View struct {
	Tickets   []domain.Ticket  `json:"tickets,omitempty"`
	Buckets   []LocationBucket `json:"buckets,omitempty"`
	Provinces []ProvinceGroup  `json:"provinces,omitempty"`
}

// Project derives the filtered, grouped view. Pure: it never mutates
// its input and is safe to recompute on every state change.
func Project(tickets []domain.Ticket, q Query) View {
	filtered := filterTickets(tickets, q)

	switch q.Group {
	case GroupByLocation:
		return View{Buckets: groupByLocation(filtered)}
	case GroupByProvince:
		return View{Provinces: groupByProvince(filtered)}
	default:
		return View{Tickets: filtered}
	}
}

// filterTickets applies the tab split first, then the optional exact
// status filter. Server order is preserved.
func filterTickets(tickets []domain.Ticket, q Query) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if !q.Tab.Matches(t.Status) {
			continue
		}
		if q.Status != "" && q.Status != StatusFilterAll && t.Status != domain.TicketStatus(q.Status) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// locationKey buckets a ticket for the by-location view: the canonical
// spelling when the table knows the location, the raw value when it
// does not, and NoLocation when absent.
func locationKey(t domain.Ticket) string {
	if canonical, ok := domain.CanonicalLocation(t.Location); ok {
		return canonical
	}
	if t.Location != "" {
		return t.Location
	}
	return domain.NoLocation
}

func groupByLocation(tickets []domain.Ticket) []LocationBucket {
	byKey := make(map[string][]domain.Ticket)
	var order []string
	for _, t := range tickets {
		key := locationKey(t)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], t)
	}

	// Descending by member count; ties keep first-encountered order.
	sort.SliceStable(order, func(i, j int) bool {
		return len(byKey[order[i]]) > len(byKey[order[j]])
	})

	buckets := make([]LocationBucket, 0, len(order))
	for _, key := range order {
		members := byKey[key]
		sortOldestFirst(members)
		buckets = append(buckets, LocationBucket{Location: key, Tickets: members})
	}
	return buckets
}

func groupByProvince(tickets []domain.Ticket) []ProvinceGroup {
	byCanonical := make(map[string][]domain.Ticket)
	var unassigned []domain.Ticket
	for _, t := range tickets {
		if canonical, ok := domain.CanonicalLocation(t.Location); ok {
			byCanonical[canonical] = append(byCanonical[canonical], t)
		} else {
			unassigned = append(unassigned, t)
		}
	}

	var groups []ProvinceGroup
	for _, province := range domain.Provinces {
		var buckets []LocationBucket
		for _, name := range province.Locations {
			members := byCanonical[name]
			if len(members) == 0 {
				continue
			}
			sortOldestFirst(members)
			buckets = append(buckets, LocationBucket{Location: name, Tickets: members})
		}
		if len(buckets) > 0 {
			groups = append(groups, ProvinceGroup{Province: province.Name, Buckets: buckets})
		}
	}

	if len(unassigned) > 0 {
		sortOldestFirst(unassigned)
		groups = append(groups, ProvinceGroup{
			Province: domain.NoLocation,
			Buckets:  []LocationBucket{{Location: domain.UnassignedLocation, Tickets: unassigned}},
		})
	}
	return groups
}

// sortOldestFirst orders a bucket ascending by createdAt: older
// unresolved tickets surface first for staff attention.
func sortOldestFirst(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}
