package persona

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumichat/lumichat/internal/model/persona"
)

// Handler serves the persona management surface. The conversational core
// only ever reads the active persona; creation and activation live here so
// an admin frontend has something to call.
type Handler struct {
	personas persona.Store
}

func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/personas", h.handleList)
	r.Get("/personas/active", h.handleActive)
	r.Get("/personas/{id}", h.handleGet)
	r.Post("/personas", h.handleCreate)
	r.Post("/personas/{id}/activate", h.handleActivate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.personas.List())
}

// handleActive returns the greeting payload the frontend renders before the
// first message: name, profile and welcome line of whichever persona is
// active, falling back to the built-in default.
func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	active, ok := h.personas.GetActive()
	if !ok {
		active = persona.Fallback()
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"name":           active.Name,
		"profile":        active.Profile(),
		"welcomeMessage": active.WelcomeMessage,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.personas.FindByID(id)
	if !ok {
		respondError(w, http.StatusNotFound, "persona not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p persona.Persona
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.personas.Create(p); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.personas.SetActive(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, persona.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "activated", "id": id})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
