package handler

import (
	"net/http"

	"github.com/forgo/guildhall/api/internal/model"
	"github.com/forgo/guildhall/api/internal/service"
)

// PartnerHandler handles partner HTTP requests
type PartnerHandler struct {
	svc *service.RegistryService
}

// NewPartnerHandler creates a new partner handler
func NewPartnerHandler(svc *service.RegistryService) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

// RegisterRoutes registers partner routes
func (h *PartnerHandler) RegisterRoutes(mux *http.ServeMux, g Guards) {
	mux.HandleFunc("GET /v1/partners", h.List)
	mux.HandleFunc("GET /v1/partners/{partnerId}", h.Get)
	mux.Handle("POST /v1/partners", g.observer(h.Create))
	mux.Handle("PATCH /v1/partners/{partnerId}", g.observer(h.Update))
	mux.Handle("DELETE /v1/partners/{partnerId}", g.observer(h.Delete))
}

// List handles GET /v1/partners
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteCollection(w, h.svc.ListPartners())
}

// Get handles GET /v1/partners/{partnerId}
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	partner, err := h.svc.GetPartner(r.PathValue("partnerId"))
	if err != nil {
		writeServiceError(w, "get partner", err)
		return
	}
	WriteData(w, http.StatusOK, partner)
}

// Create handles POST /v1/partners
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Partner
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, model.NewValidationError(errs))
		return
	}

	partner, err := h.svc.CreatePartner(r.Context(), &req)
	if err != nil {
		writeServiceError(w, "create partner", err)
		return
	}
	WriteData(w, http.StatusCreated, partner)
}

// Update handles PATCH /v1/partners/{partnerId}
func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.PartnerPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	partner, err := h.svc.EditPartner(r.Context(), r.PathValue("partnerId"), patch)
	if err != nil {
		writeServiceError(w, "edit partner", err)
		return
	}
	WriteData(w, http.StatusOK, partner)
}

// Delete handles DELETE /v1/partners/{partnerId}
func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	partner, err := h.svc.RemovePartner(r.Context(), r.PathValue("partnerId"))
	if err != nil {
		writeServiceError(w, "remove partner", err)
		return
	}
	WriteData(w, http.StatusOK, partner)
}
