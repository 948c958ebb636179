package domain

import (
	"time"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in-progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
	StatusArchived   TicketStatus = "archived"
)

// AllStatuses lists every status in display order.
var AllStatuses = []TicketStatus{
	StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusArchived,
}

// IsValid reports whether the status is one of the five known values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusArchived:
		return true
	}
	return false
}

// TicketPriority represents the user-assigned urgency of a ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// IsValid reports whether the priority is one of the four known values.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TicketCategory routes a ticket to the facilities or tech queue.
type TicketCategory string

const (
	CategoryFacilities TicketCategory = "facilities"
	CategoryTech       TicketCategory = "tech"
)

// IsValid reports whether the category is a known value.
func (c TicketCategory) IsValid() bool {
	return c == CategoryFacilities || c == CategoryTech
}

// UserRef identifies the creator or assignee of a ticket.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Comment is a single entry in a ticket's discussion thread.
// Comments are append-only from the console's perspective.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedBy UserRef   `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ticket is the core entity held by the store. The bulk list endpoint
// returns summary records; Comments is only populated after a full
// detail fetch.
type Ticket struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    TicketCategory `json:"category"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	Location    string         `json:"location,omitempty"`
	PhotoURLs   []string       `json:"photoUrls,omitempty"`
	CreatedBy   UserRef        `json:"createdBy"`
	AssignedTo  *UserRef       `json:"assignedTo,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ResolvedAt  *time.Time     `json:"resolvedAt,omitempty"`
	Comments    []Comment      `json:"comments,omitempty"`
}

// Clone returns a deep copy, so a detail shadow can be edited without
// aliasing the store's slice-backed fields.
func (t Ticket) Clone() Ticket {
	out := t
	if t.PhotoURLs != nil {
		out.PhotoURLs = append([]string(nil), t.PhotoURLs...)
	}
	if t.Comments != nil {
		out.Comments = append([]Comment(nil), t.Comments...)
	}
	if t.AssignedTo != nil {
		assignee := *t.AssignedTo
		out.AssignedTo = &assignee
	}
	if t.ResolvedAt != nil {
		resolved := *t.ResolvedAt
		out.ResolvedAt = &resolved
	}
	return out
}

// UrgencyLevel classifies a ticket by how long it has been waiting,
// independent of the user-assigned priority.
type UrgencyLevel string

const (
	UrgencyNormal   UrgencyLevel = "normal"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Urgency buckets the ticket's age at the given instant. Callers capture
// now once per projection pass so repeated calls within a pass agree.
func (t Ticket) Urgency(now time.Time) UrgencyLevel {
	age := now.Sub(t.CreatedAt)
	switch {
	case age >= 72*time.Hour:
		return UrgencyCritical
	case age >= 48*time.Hour:
		return UrgencyHigh
	case age >= 24*time.Hour:
		return UrgencyMedium
	default:
		return UrgencyNormal
	}
}

// NeedsAttention reports whether the ticket counts toward the
// urgent-by-location badge: still being worked, and either flagged
// urgent by a user or waiting for three days or more.
func (t Ticket) NeedsAttention(now time.Time) bool {
	if t.Status != StatusOpen && t.Status != StatusInProgress {
		return false
	}
	return t.Priority == PriorityUrgent || now.Sub(t.CreatedAt) >= 72*time.Hour
}
