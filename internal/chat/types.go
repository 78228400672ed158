package chat

import "context"

// Reply sources. The values are part of the wire contract with existing
// clients; "supabase" marks answers built from barangay records.
const (
	SourceOffline    = "offline"
	SourceFAQ        = "faq"
	SourceNavigation = "navigation"
	SourceDatabase   = "supabase"
	SourceAI         = "ai"
	SourceFallback   = "fallback"
)

const (
	Apology        = "Sorry, I'm having trouble answering right now. Please try again in a moment or contact the barangay office."
	OfflineDefault = "I'm in offline mode, so I can only answer common questions about barangay services, documents, office hours and emergency hotlines. Switch to online mode for more."
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Query is one user turn as seen by the stages.
type Query struct {
	Text       string
	Normalized string
	History    []Message
	BarangayID string
	// Verified is set when BarangayID came from a valid session token rather
	// than the client's own claim. Resident and blotter data need it.
	Verified bool
	Online   bool
}

type Reply struct {
	Message  string `json:"message"`
	Source   string `json:"source"`
	Category string `json:"category"`
}

// Handler answers a query or returns nil to let the next stage try.
type Handler interface {
	Name() string
	Handle(ctx context.Context, q Query) (*Reply, error)
}
