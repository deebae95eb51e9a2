package middleware

import (
	"net/http"

	"github.com/forgo/guildhall/api/internal/model"
)

// UserLookup reads cached records for access decisions
type UserLookup interface {
	GetUser(id string) (*model.User, error)
	GetGuild(id string) (*model.Guild, error)
}

// HasRole returns true if the cached record for userID carries role.
// Unknown users have no roles.
func HasRole(users UserLookup, userID string, role model.Role) bool {
	if userID == "" {
		return false
	}
	user, err := users.GetUser(userID)
	if err != nil || user == nil {
		return false
	}
	return user.HasRole(role)
}

// IsObserverOrOwner returns true if userID is an observer or sits in the
// owner slot of guildID
func IsObserverOrOwner(users UserLookup, userID, guildID string) bool {
	if HasRole(users, userID, model.RoleObserver) {
		return true
	}
	if userID == "" || guildID == "" {
		return false
	}
	guild, err := users.GetGuild(guildID)
	if err != nil || guild == nil {
		return false
	}
	return guild.Owner == userID
}

// RequireRole returns a middleware that rejects callers without role.
// It must run after Auth.
func RequireRole(users UserLookup, role model.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}

			if !HasRole(users, userID, role) {
				model.NewForbiddenError("missing role " + string(role)).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
