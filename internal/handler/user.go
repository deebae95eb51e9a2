package handler

import (
	"context"
	"net/http"

	"github.com/forgo/guildhall/api/internal/middleware"
	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	svc *service.RegistryService
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.RegistryService) *UserHandler {
	return &UserHandler{svc: svc}
}

// RoleRequest is the body of the role mutators
type RoleRequest struct {
	Role model.Role `json:"role"`
}

// MembershipRequest is the body of the membership mutators
type MembershipRequest struct {
	Guild string `json:"guild"`
}

// RegisterRoutes registers user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, g Guards) {
	mux.HandleFunc("GET /v1/users", h.List)
	mux.HandleFunc("GET /v1/users/{userId}", h.Get)
	mux.Handle("POST /v1/users", g.observer(h.Create))
	mux.Handle("PATCH /v1/users/{userId}", g.observer(h.Update))
	mux.Handle("DELETE /v1/users/{userId}", g.observer(h.Delete))

	mux.Handle("PUT /v1/users/{userId}/roles", g.observer(h.AddRole))
	mux.Handle("DELETE /v1/users/{userId}/roles", g.observer(h.RemoveRole))

	// Guild owners may manage their own guild's membership
	mux.Handle("PUT /v1/users/{userId}/guilds", g.authed(h.AddGuild))
	mux.Handle("DELETE /v1/users/{userId}/guilds", g.authed(h.RemoveGuild))
}

// List handles GET /v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteCollection(w, h.svc.ListUsers())
}

// Get handles GET /v1/users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.PathValue("userId"))
	if err != nil {
		writeServiceError(w, "get user", err)
		return
	}
	WriteData(w, http.StatusOK, user)
}

// Create handles POST /v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.User
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	user, err := h.svc.CreateUser(r.Context(), &req)
	if err != nil {
		writeServiceError(w, "create user", err)
		return
	}
	WriteData(w, http.StatusCreated, user)
}

// Update handles PATCH /v1/users/{userId}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	user, err := h.svc.EditUser(r.Context(), r.PathValue("userId"), patch)
	if err != nil {
		writeServiceError(w, "edit user", err)
		return
	}
	WriteData(w, http.StatusOK, user)
}

// Delete handles DELETE /v1/users/{userId}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.RemoveUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeServiceError(w, "remove user", err)
		return
	}
	WriteData(w, http.StatusOK, user)
}

// AddRole handles PUT /v1/users/{userId}/roles
func (h *UserHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, "add user role", h.svc.AddUserRole)
}

// RemoveRole handles DELETE /v1/users/{userId}/roles
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, "remove user role", h.svc.RemoveUserRole)
}

// AddGuild handles PUT /v1/users/{userId}/guilds
func (h *UserHandler) AddGuild(w http.ResponseWriter, r *http.Request) {
	h.mutateGuild(w, r, "add user guild", h.svc.AddUserGuild)
}

// RemoveGuild handles DELETE /v1/users/{userId}/guilds
func (h *UserHandler) RemoveGuild(w http.ResponseWriter, r *http.Request) {
	h.mutateGuild(w, r, "remove user guild", h.svc.RemoveUserGuild)
}

type roleMutator func(ctx context.Context, id string, role model.Role) (*model.User, error)

type guildMutator func(ctx context.Context, id, guildID string) (*model.User, error)

func (h *UserHandler) mutateRole(w http.ResponseWriter, r *http.Request, operation string, fn roleMutator) {
	var req RoleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Role == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "role", Message: "role is required"}}))
		return
	}

	user, err := fn(r.Context(), r.PathValue("userId"), req.Role)
	writeMutation(w, operation, user, err)
}

func (h *UserHandler) mutateGuild(w http.ResponseWriter, r *http.Request, operation string, fn guildMutator) {
	var req MembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Guild == "" {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "guild", Message: "guild is required"}}))
		return
	}

	if !middleware.IsObserverOrOwner(h.svc, middleware.GetUserID(r.Context()), req.Guild) {
		WriteError(w, model.NewForbiddenError("observer or guild owner required"))
		return
	}

	user, err := fn(r.Context(), r.PathValue("userId"), req.Guild)
	writeMutation(w, operation, user, err)
}

// writeMutation writes the result of a relationship mutator. Removing from a
// user that does not exist returns no user and is reported as 204.
func writeMutation(w http.ResponseWriter, operation string, user *model.User, err error) {
	if err != nil {
		writeServiceError(w, operation, err)
		return
	}
	if user == nil {
		WriteNoContent(w)
		return
	}
	WriteData(w, http.StatusOK, user)
}
