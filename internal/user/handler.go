package user

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	myMiddleware "go-relay/internal/middleware"
)

type Handler struct {
	Service *Service
	log     zerolog.Logger
}

func NewHandler(s *Service, log zerolog.Logger) *Handler {
	return &Handler{Service: s, log: log}
}

func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, OnlineResponse{Users: h.Service.Online()})
}

func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	peers, err := h.Service.Peers(r.Context(), name)
	if err != nil {
		log := myMiddleware.Logger(r.Context(), h.log)
		log.Error().Err(err).Str("name", name).Msg("❌ list conversations failed")
		http.Error(w, "could not list conversations", http.StatusInternalServerError)
		return
	}
	if peers == nil {
		peers = []string{}
	}
	writeJSON(w, ConversationsResponse{Username: name, Peers: peers})
}

func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	key, lines, err := h.Service.Transcript(r.Context(), chi.URLParam(r, "a"), chi.URLParam(r, "b"))
	if err != nil {
		log := myMiddleware.Logger(r.Context(), h.log)
		log.Error().Err(err).Str("conversation", string(key)).Msg("❌ read conversation failed")
		http.Error(w, "could not read conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, TranscriptResponse{Conversation: string(key), Lines: lines})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
