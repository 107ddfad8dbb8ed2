package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/robit-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// InviteEnvelope wraps a freshly issued invite code.
type InviteEnvelope struct {
	Code      string `json:"code"`
	ExpiresIn string `json:"expiresIn"`
}

// CredentialEnvelope is the credential-check response.
type CredentialEnvelope struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeServiceError maps a service error to a status code by the first flow
// error in its chain. Only that flow error's message reaches the client;
// causes wrapped below it are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *domain.Error
	if !errors.As(err, &fe) {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch {
	case errors.Is(fe, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, fe.Error())
	case errors.Is(fe, domain.ErrBadRequest), errors.Is(fe, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, fe.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, fe.Error())
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
