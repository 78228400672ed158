package auth

import (
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
)

type SessionInfo struct{}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session

	err := db.DB.First(&session, "session_id = ?", id).Error
	if err != nil {
		return utils.SessionData{}, err
	}

	var user User
	if err := db.DB.First(&user, "user_id = ?", session.UserID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:     session.UserID,
		BarangayID: user.BarangayID,
		Role:       user.Role,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

// FindUserByToken resolves a bearer token (a session id) to its session,
// for callers such as the chat endpoint that receive the token in the body.
// Expired sessions do not resolve.
func FindUserByToken(token string) (utils.SessionData, bool) {
	if token == "" {
		return utils.SessionData{}, false
	}
	s, err := SessionInfo{}.FindSessionByID(token)
	if err != nil || !s.ExpiresAt.After(time.Now()) {
		return utils.SessionData{}, false
	}
	return s, true
}
