package domain

// Reply is a single message in an external staff thread. Ts is the
// thread-native opaque identifier; Timestamp is its human-readable
// rendering as returned by the backend.
type Reply struct {
	Ts        string `json:"ts"`
	User      string `json:"user,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
	FromStaff bool   `json:"is_from_clubos,omitempty"`

	// Self marks a follow-up the console user sent, appended locally
	// before the gateway confirms it. Never set on fetched replies.
	Self bool `json:"-"`
}
