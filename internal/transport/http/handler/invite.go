package handler

import (
	"fmt"
	"net/http"

	"github.com/robit-auth/internal/application/invite"
	"github.com/robit-auth/internal/domain"
)

// InviteHandler issues invite codes to operators holding the invite secret.
type InviteHandler struct {
	svc invite.Service
}

func NewInviteHandler(svc invite.Service) *InviteHandler { return &InviteHandler{svc: svc} }

func (h *InviteHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req domain.IssueInviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inv, err := h.svc.Issue(r.Context(), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InviteEnvelope{
		Code:      inv.Code,
		ExpiresIn: fmt.Sprintf("%d minutes", int(h.svc.ExpiresIn().Minutes())),
	})
}
