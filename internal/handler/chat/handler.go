package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumichat/lumichat/internal/identity"
	"github.com/lumichat/lumichat/internal/provider"
	chatService "github.com/lumichat/lumichat/internal/service/chat"
)

// apology is the uniform user-safe reply accompanying any unrecoverable
// failure. The underlying cause only reaches the logs.
const apology = "I'm sorry, something went wrong on my side. Please try again in a moment."

// cookieMaxAge matches the cache's default record lifetime.
const cookieMaxAge = int(72 * time.Hour / time.Second)

// Handler serves the conversational endpoints.
type Handler struct {
	orchestrator *chatService.Orchestrator
}

func New(orchestrator *chatService.Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleMessage)
	r.Get("/chat/history", h.handleHistory)
	r.Delete("/chat/history", h.handleClearHistory)
}

type messagePayload struct {
	Message string `json:"message"`
}

type personaInfo struct {
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type messageResponse struct {
	Response       string      `json:"response"`
	Persona        personaInfo `json:"persona"`
	SessionID      string      `json:"sessionId"`
	ProcessingTime int64       `json:"processingTime"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// handleMessage runs one conversational turn. The session key is resolved
// before anything else so even failures carry it, letting the client retry
// in-session.
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, fromCookie := identity.Resolve(r)
	if !fromCookie {
		h.setSessionCookie(w, sessionID)
	}

	var payload messagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "invalid request body",
			Response:  apology,
			SessionID: sessionID,
		})
		return
	}
	if payload.Message == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "message is required",
			Response:  apology,
			SessionID: sessionID,
		})
		return
	}

	result, err := h.orchestrator.Respond(r.Context(), chatService.Request{
		SessionID:       sessionID,
		Message:         payload.Message,
		OriginAddress:   identity.OriginAddress(r),
		ClientSignature: r.UserAgent(),
	})
	if err != nil {
		status := http.StatusInternalServerError
		message := "failed to generate a response"
		switch {
		case errors.Is(err, provider.ErrProvider):
			status = http.StatusBadGateway
		case errors.Is(err, chatService.ErrNotConfigured):
			status = http.StatusServiceUnavailable
			message = "assistant backend is not configured"
		}
		respondJSON(w, status, errorResponse{
			Error:     message,
			Response:  apology,
			SessionID: sessionID,
		})
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		Response: result.Response,
		Persona: personaInfo{
			Name:    result.PersonaName,
			Profile: result.PersonaProfile,
		},
		SessionID:      result.SessionID,
		ProcessingTime: result.ProcessingTime.Milliseconds(),
	})
}

// handleHistory returns the reconciled transcript for the caller's session.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, fromCookie := identity.Resolve(r)
	if !fromCookie {
		h.setSessionCookie(w, sessionID)
	}

	entries := h.orchestrator.History(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"history":   entries,
	})
}

// handleClearHistory wipes the caller's history from both tiers, so a
// follow-up history read comes back empty rather than resurfacing the
// cached transcript.
func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := identity.Resolve(r)

	if err := h.orchestrator.ClearHistory(r.Context(), sessionID); err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "failed to clear history",
			Response:  apology,
			SessionID: sessionID,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "cleared",
		"sessionId": sessionID,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     identity.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
