package useful

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	authRealm         = "useful"
	authWaitOnFailure = 500 * time.Millisecond
)

func (a *application) isAuthorized(r *http.Request) bool {
	if !a.RequiresAuth {
		return true
	}

	username, password, ok := r.BasicAuth()
	if !ok || len(username) == 0 || len(password) == 0 {
		return false
	}

	if len(username) > 50 || len(password) > 100 {
		return false
	}

	// Unknown users are checked against a throwaway hash of the same cost so
	// both paths take as long.
	hash := a.unknownUserHash
	u, exists := a.Config.Auth.Users[username]
	if exists {
		hash = u.PasswordHash
	}

	if err := a.comparePassword(hash, []byte(password)); err != nil || !exists {
		a.logAuthFailure(r, username)
		return false
	}

	return true
}

// newUnknownUserHash hashes a random password with the highest cost used by
// the configured users.
func newUnknownUserHash(users map[string]*user) ([]byte, error) {
	cost := bcrypt.MinCost
	for _, u := range users {
		if c, err := bcrypt.Cost(u.PasswordHash); err == nil && c > cost {
			cost = c
		}
	}

	password := make([]byte, 32)
	if _, err := rand.Read(password); err != nil {
		return nil, err
	}

	// bcrypt only reads the first 72 bytes; hex keeps it printable and within that
	return bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(password)), cost)
}

func (a *application) logAuthFailure(r *http.Request, username string) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	slog.Warn("Failed login attempt", "user", username, "ip", ip)
}

func (a *application) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.isAuthorized(r) {
			if a.authFailureDelay > 0 {
				time.Sleep(a.authFailureDelay)
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r)
	}
}
