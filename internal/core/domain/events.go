package domain

// EventType defines the type of store change event.
type EventType string

const (
	EventLoaded         EventType = "TICKETS_LOADED"
	EventStatusUpdated  EventType = "STATUS_UPDATED"
	EventCommentAdded   EventType = "COMMENT_ADDED"
	EventTicketReplaced EventType = "TICKET_REPLACED"
	EventRepliesUpdated EventType = "REPLIES_UPDATED"
)

// Event is emitted by the store (and the reply poller) whenever view
// state changes. It is the payload pushed over the WebSocket change feed.
type Event struct {
	Type     EventType   `json:"type"`
	Payload  interface{} `json:"payload,omitempty"`
	TicketID int64       `json:"ticketId,omitempty"`
	ThreadTS string      `json:"threadTs,omitempty"`
}
