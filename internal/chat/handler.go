package chat

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
)

const maxChatBody = 64 << 10

// Request is the body of POST /chat.
type Request struct {
	Messages            []Message `json:"messages"`
	ConversationHistory []Message `json:"conversationHistory"`
	AuthToken           string    `json:"authToken"`
	UserBrgyID          string    `json:"userBrgyId"`
	IsOnlineMode        *bool     `json:"isOnlineMode"`
}

// TokenResolver maps an auth token to the caller's session.
type TokenResolver func(token string) (utils.SessionData, bool)

type Endpoint struct {
	dispatcher *Dispatcher
	resolve    TokenResolver
}

func NewEndpoint(d *Dispatcher, resolve TokenResolver) *Endpoint {
	return &Endpoint{dispatcher: d, resolve: resolve}
}

// question is the last user message, with earlier messages becoming history
// when no separate history was sent.
func (req Request) question() (string, []Message) {
	history := req.ConversationHistory
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m.Role != "user" && m.Role != "" {
			continue
		}
		if len(history) == 0 {
			history = req.Messages[:i]
		}
		return m.Content, history
	}
	return "", history
}

// barangay prefers the barangay bound to a valid token over the one the
// client claims. verified is true only for the token case.
func (e *Endpoint) barangay(req Request) (id string, verified bool) {
	if req.AuthToken != "" && e.resolve != nil {
		token := strings.TrimSpace(strings.TrimPrefix(req.AuthToken, "Bearer "))
		if s, ok := e.resolve(token); ok && s.BarangayID != "" {
			return s.BarangayID, true
		}
	}
	return strings.TrimSpace(req.UserBrgyID), false
}

// Chat never fails the caller: every outcome is a 200 with a reply.
func (e *Endpoint) Chat(w http.ResponseWriter, r *http.Request) {
	var req Request
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("[chat] bad request body")
		utils.WriteJSON(w, http.StatusOK, Reply{Message: Apology, Source: SourceFallback, Category: "general"})
		return
	}

	text, history := req.question()
	online := req.IsOnlineMode == nil || *req.IsOnlineMode
	brgy, verified := e.barangay(req)
	reply := e.dispatcher.Answer(r.Context(), Query{
		Text:       text,
		History:    history,
		BarangayID: brgy,
		Verified:   verified,
		Online:     online,
	})
	utils.WriteJSON(w, http.StatusOK, reply)
}
