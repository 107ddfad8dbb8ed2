package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/robit-auth/internal/application/credential"
	"github.com/robit-auth/internal/domain"
	"github.com/robit-auth/internal/pkg/validate"
)

// CredentialHandler answers username/password validity checks.
type CredentialHandler struct {
	svc credential.Service
}

func NewCredentialHandler(svc credential.Service) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// CheckPath serves GET /userpass/{username}/{password}. Credentials in the URL
// end up in proxy and browser history; prefer CheckBody for new clients.
func (h *CredentialHandler) CheckPath(w http.ResponseWriter, r *http.Request) {
	h.check(w, r, pathParam(r, "username"), pathParam(r, "password"))
}

// CheckBody serves POST /userpass with a JSON body.
func (h *CredentialHandler) CheckBody(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckCredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, CredentialEnvelope{Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, CredentialEnvelope{Message: err.Error()})
		return
	}
	h.check(w, r, req.Username, req.Password)
}

func (h *CredentialHandler) check(w http.ResponseWriter, r *http.Request, username, password string) {
	res, err := h.svc.Check(r.Context(), username, password)
	if err != nil {
		slog.ErrorContext(r.Context(), "credential check failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, CredentialEnvelope{Message: "Authentication failed"})
		return
	}
	switch res {
	case credential.Valid:
		writeJSON(w, http.StatusOK, CredentialEnvelope{Valid: true, Message: "Authentication successful"})
	case credential.InvalidUsername:
		writeJSON(w, http.StatusOK, CredentialEnvelope{Message: "Username not found"})
	default:
		writeJSON(w, http.StatusOK, CredentialEnvelope{Message: "Incorrect password"})
	}
}

// pathParam returns the decoded value of a chi URL parameter. chi matches
// against the escaped path whenever the request carried one.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}
