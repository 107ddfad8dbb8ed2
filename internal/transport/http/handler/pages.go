package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	registerPage = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/register.html"))
	verifyPage   = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/verify.html"))
)

type pageData struct {
	Brand string
	Title string
	Code  string
	Email string
}

type inviteChecker interface {
	Valid(code string) bool
}

type pendingChecker interface {
	HasPending(email string) bool
}

// PageHandler serves the invite-gated registration form and the
// verification code form.
type PageHandler struct {
	invites inviteChecker
	pending pendingChecker
	brand   string
}

func NewPageHandler(invites inviteChecker, pending pendingChecker, brand string) *PageHandler {
	return &PageHandler{invites: invites, pending: pending, brand: brand}
}

// Register serves GET /{code}.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	code := pathParam(r, "code")
	if !h.invites.Valid(code) {
		http.Error(w, "Invalid or expired code", http.StatusNotFound)
		return
	}
	h.render(w, r, registerPage, pageData{Brand: h.brand, Title: "Create Account", Code: code})
}

// Verify serves GET /verify/{email}.
func (h *PageHandler) Verify(w http.ResponseWriter, r *http.Request) {
	email := pathParam(r, "email")
	if !h.pending.HasPending(email) {
		http.Error(w, "Invalid verification link", http.StatusNotFound)
		return
	}
	h.render(w, r, verifyPage, pageData{Brand: h.brand, Title: "Verify Email", Email: email})
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, t *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.ErrorContext(r.Context(), "render page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
