package observer

// EventKind distinguishes what the injected page script reported.
type EventKind string

const (
	// KindChatNode is one node added to the chat list container.
	KindChatNode EventKind = "chat"
	// KindNavigate is an in-place SPA navigation (history API or popstate).
	KindNavigate EventKind = "navigate"
)

// Event is a single signal from the page, delivered in arrival order.
// Within one mutation batch the page script ships added nodes in DOM order,
// oldest-inserted first.
type Event struct {
	Kind EventKind `json:"kind"`
	HTML string    `json:"html,omitempty"` // outer HTML of the added node
	URL  string    `json:"url,omitempty"`  // new location for navigate
}
