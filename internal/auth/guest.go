package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mind-engage/mindengage-grader/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grader/internal/logging"
)

const guestCookie = "me_guest_id"

// GuestLoginHandler issues a student token for an anonymous learner. The
// guest identity is kept in a cookie so the same browser keeps its attempts.
func GuestLoginHandler(a *authmw.AuthService, secureCookie bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ""
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			userID = c.Value
		}
		if userID == "" {
			userID = "guest|" + uuid.NewString()
			logging.FromContext(r.Context()).WithField("sub", userID).Info("new guest")
		}

		tok, err := a.IssueJWT(userID, authmw.RoleStudent)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		sameSite := http.SameSiteLaxMode
		if secureCookie {
			sameSite = http.SameSiteNoneMode
		}
		// refresh TTL on every login
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    userID,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: sameSite,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: guestName(userID)})
	}
}

func guestName(userID string) string {
	id := strings.ReplaceAll(strings.TrimPrefix(userID, "guest|"), "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "guest-" + id
}
