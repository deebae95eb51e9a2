package handler

import (
	"net/http"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// GuildHandler handles guild HTTP requests
type GuildHandler struct {
	svc *service.RegistryService
}

// NewGuildHandler creates a new guild handler
func NewGuildHandler(svc *service.RegistryService) *GuildHandler {
	return &GuildHandler{svc: svc}
}

// RegisterRoutes registers guild routes. Reads are public; writes need an observer.
func (h *GuildHandler) RegisterRoutes(mux *http.ServeMux, g Guards) {
	mux.HandleFunc("GET /v1/guilds", h.List)
	mux.HandleFunc("GET /v1/guilds/{guildId}", h.Get)
	mux.Handle("POST /v1/guilds", g.observer(h.Create))
	mux.Handle("PATCH /v1/guilds/{guildId}", g.observer(h.Update))
	mux.Handle("DELETE /v1/guilds/{guildId}", g.observer(h.Delete))
}

// List handles GET /v1/guilds
func (h *GuildHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteCollection(w, h.svc.ListGuilds())
}

// Get handles GET /v1/guilds/{guildId}
func (h *GuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	guild, err := h.svc.GetGuild(r.PathValue("guildId"))
	if err != nil {
		writeServiceError(w, "get guild", err)
		return
	}
	WriteData(w, http.StatusOK, guild)
}

// Create handles POST /v1/guilds
func (h *GuildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Guild
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	guild, err := h.svc.CreateGuild(r.Context(), &req)
	if err != nil {
		writeServiceError(w, "create guild", err)
		return
	}
	WriteData(w, http.StatusCreated, guild)
}

// Update handles PATCH /v1/guilds/{guildId}
func (h *GuildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.GuildPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if errs := patch.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	guild, err := h.svc.EditGuild(r.Context(), r.PathValue("guildId"), patch)
	if err != nil {
		writeServiceError(w, "edit guild", err)
		return
	}
	WriteData(w, http.StatusOK, guild)
}

// Delete handles DELETE /v1/guilds/{guildId}
func (h *GuildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	guild, err := h.svc.RemoveGuild(r.Context(), r.PathValue("guildId"))
	if err != nil {
		writeServiceError(w, "remove guild", err)
		return
	}
	WriteData(w, http.StatusOK, guild)
}
