package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/activity"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/middleware"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/apex/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// sessionCookie is Secure/SameSite=None in deployments (COOKIE_SECURE=true)
// and Lax over plain HTTP for local development.
func sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     "session_id",
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if strings.EqualFold(os.Getenv("COOKIE_SECURE"), "true") {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var user User

	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" || user.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}
	if len(user.Password) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	// Check if username is taken
	var existing User
	err := db.DB.First(&existing, "username = ?", user.Username).Error
	if err == nil {
		http.Error(w, "Username already taken", http.StatusConflict)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}
	user.HashedPassword = string(hashed)
	user.UserID = utils.GenerateUUID()
	user.Password = ""

	// Admins only create accounts in their own barangay.
	user.BarangayID, _ = utils.GetBarangayIDFromContext(r.Context())
	if user.Role != RoleAdmin {
		user.Role = RoleStaff
	}

	if err := db.DB.Create(&user).Error; err != nil {
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]string{
		"user_id":     user.UserID,
		"username":    user.Username,
		"role":        user.Role,
		"barangay_id": user.BarangayID,
	})
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds User

	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid Data", http.StatusBadRequest)
		return
	}

	var user User
	if err := db.DB.First(&user, "username = ?", strings.TrimSpace(creds.Username)).Error; err != nil {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
		http.Error(w, "Invalid Credentials", http.StatusUnauthorized)
		return
	}

	sessionID := utils.GenerateUUID()
	expires := time.Now().Add(SessionTTL)

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var existing Session
		err := tx.Where("user_id = ?", user.UserID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&Session{}).Where("user_id = ?", user.UserID).
				Updates(map[string]interface{}{"session_id": sessionID, "expires_at": expires}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&Session{SessionID: sessionID, UserID: user.UserID, ExpiresAt: expires}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return activity.Record(tx, activity.Entry{
			BarangayID: user.BarangayID,
			UserID:     user.UserID,
			Action:     activity.ActionLogin,
			Details:    map[string]interface{}{"username": user.Username},
			IP:         middleware.ClientIP(r),
			Agent:      r.UserAgent(),
		})
	})
	if err != nil {
		log.WithError(err).WithField("user_id", user.UserID).Error("[LoginHandler] session write failed")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, sessionCookie(sessionID, int(SessionTTL.Seconds())))

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"user_id":     user.UserID,
		"username":    user.Username,
		"role":        user.Role,
		"barangay_id": user.BarangayID,
	})
}

func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("session_id = ?", cookie.Value).Delete(&Session{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return activity.Record(tx, activity.EntryFromRequest(r, activity.ActionLogout, nil))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, sessionCookie("", -1))
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

type MeResponse struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	BarangayID string `json:"barangay_id"`
}

func MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Failed converting ID to string", http.StatusInternalServerError)
		return
	}

	var user User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, http.StatusOK, MeResponse{
		UserID:     user.UserID,
		Username:   user.Username,
		FullName:   user.FullName,
		Role:       user.Role,
		BarangayID: user.BarangayID,
	})
}

func UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPassword == "" {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}
	if len(body.NewPassword) < 8 {
		http.Error(w, "Password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())
	var user User
	if err := db.DB.First(&user, "user_id = ?", userID).Error; err != nil {
		http.Error(w, "Couldn't find user", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(body.CurrentPassword)); err != nil {
		http.Error(w, "Invalid current password", http.StatusUnauthorized)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Server error hashing password", http.StatusInternalServerError)
		return
	}

	if err := db.DB.Model(&User{}).Where("user_id = ?", userID).
		Update("hashed_password", string(hashed)).Error; err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
