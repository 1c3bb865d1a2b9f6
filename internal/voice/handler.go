package voice

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"go-relay/internal/errs"
	myMiddleware "go-relay/internal/middleware"
)

const defaultContentType = "audio/webm"

type Handler struct {
	store Store
	log   zerolog.Logger
}

func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts GET /{id}; the caller mounts it at RoutePrefix.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.Get)
	return r
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := h.store.Get(r.Context(), id)
	if errors.Is(err, errs.ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "File not found"})
		return
	}
	if err != nil {
		log := myMiddleware.Logger(r.Context(), h.log)
		log.Error().Err(err).Str("id", id).Msg("❌ voice read failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(data))
	http.ServeContent(w, r, id, time.Time{}, bytes.NewReader(data))
}

// contentType sniffs the payload and falls back to webm audio when the
// recording is not recognised as audio.
func contentType(data []byte) string {
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "audio/") {
		return mt.String()
	}
	return defaultContentType
}
