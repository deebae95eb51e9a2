package handler

import (
	"net/http"

	"github.com/forgo/guildhall/api/internal/middleware"
	"github.com/forgo/guildhall/api/internal/model"
)

// Guards holds the access checks shared by the route groups
type Guards struct {
	// Auth rejects requests without a valid token
	Auth middleware.Middleware
	// Users backs role checks
	Users middleware.UserLookup
}

func (g Guards) authed(h http.HandlerFunc) http.Handler {
	return g.Auth(h)
}

func (g Guards) observer(h http.HandlerFunc) http.Handler {
	return middleware.Chain(h, g.Auth, middleware.RequireRole(g.Users, model.RoleObserver))
}
