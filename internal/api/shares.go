package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

// NotificationSender delivers lifecycle notifications to the share's sender.
type NotificationSender interface {
	SendShareAccepted(ctx context.Context, sh *store.RemoteShare) error
	SendShareDeclined(ctx context.Context, sh *store.RemoteShare) error
}

// ShareView is the safe view of a received share for API responses.
// It excludes the shared secret.
type ShareView struct {
	ShareID           string `json:"shareId"`
	ProviderID        string `json:"providerId"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Owner             string `json:"owner"`
	OwnerDisplayName  string `json:"ownerDisplayName,omitempty"`
	Sender            string `json:"sender"`
	SenderDisplayName string `json:"senderDisplayName,omitempty"`
	SenderHost        string `json:"senderHost"`
	ShareWith         string `json:"shareWith"`
	ResourceType      string `json:"resourceType"`
	Permissions       string `json:"permissions,omitempty"`
	State             string `json:"state"`
	CreatedAt         int64  `json:"createdAt"`
	UpdatedAt         int64  `json:"updatedAt"`
}

// NewShareView converts a stored share to its API view.
func NewShareView(s *store.RemoteShare) ShareView {
	return ShareView{
		ShareID:           s.ID,
		ProviderID:        s.ProviderID,
		Name:              s.Name,
		Description:       s.Description,
		Owner:             s.Owner,
		OwnerDisplayName:  s.OwnerDisplayName,
		Sender:            s.Sender,
		SenderDisplayName: s.SenderDisplayName,
		SenderHost:        s.SenderHost,
		ShareWith:         s.ShareWith,
		ResourceType:      s.ResourceType,
		Permissions:       s.Permissions,
		State:             s.State,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ListSharesResponse wraps the share views returned by HandleList.
type ListSharesResponse struct {
	Shares []ShareView `json:"shares"`
}

// SharesHandler serves the authenticated share inbox endpoints.
type SharesHandler struct {
	svc    *share.Service
	sender NotificationSender
	log    *slog.Logger
}

// NewSharesHandler creates a shares handler. The sender may be nil; accept
// and decline then skip peer notification.
func NewSharesHandler(svc *share.Service, sender NotificationSender, log *slog.Logger) *SharesHandler {
	return &SharesHandler{
		svc:    svc,
		sender: sender,
		log:    logutil.NoopIfNil(log),
	}
}

// HandleList handles GET /api/shares.
// Lists only shares addressed to the authenticated user.
func (h *SharesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteUnauthorized(w, ReasonUnauthenticated, "authentication required")
		return
	}

	result, err := h.svc.ListForRecipient(r.Context(), user.Username)
	if err != nil {
		h.log.Error("failed to list shares", "user_id", user.ID, "error", err)
		WriteInternalError(w, "failed to list shares")
		return
	}

	views := make([]ShareView, 0, len(result))
	for _, s := range result {
		views = append(views, NewShareView(s))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListSharesResponse{Shares: views})
}

// HandleGet handles GET /api/shares/{shareId}.
func (h *SharesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteUnauthorized(w, ReasonUnauthenticated, "authentication required")
		return
	}

	shareID := chi.URLParam(r, "shareId")
	if shareID == "" {
		WriteBadRequest(w, ReasonMissingField, "shareId is required")
		return
	}

	sh, err := h.svc.GetForRecipient(r.Context(), shareID, user.Username)
	if err != nil {
		if share.IsNotFound(err) {
			WriteNotFound(w, "share not found")
			return
		}
		h.log.Error("failed to get share", "share_id", shareID, "user_id", user.ID, "error", err)
		WriteInternalError(w, "failed to get share")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NewShareView(sh))
}

// HandleAccept handles POST /api/shares/{shareId}/accept.
// Ownership is enforced by construction: cross-user lookups report not-found.
func (h *SharesHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, store.StateAccepted)
}

// HandleDecline handles POST /api/shares/{shareId}/decline.
func (h *SharesHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, store.StateDeclined)
}

func (h *SharesHandler) transition(w http.ResponseWriter, r *http.Request, state string) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteUnauthorized(w, ReasonUnauthenticated, "authentication required")
		return
	}

	shareID := chi.URLParam(r, "shareId")
	if shareID == "" {
		WriteBadRequest(w, ReasonMissingField, "shareId is required")
		return
	}

	ctx := r.Context()

	sh, err := h.svc.GetForRecipient(ctx, shareID, user.Username)
	if err != nil {
		if share.IsNotFound(err) {
			WriteNotFound(w, "share not found")
			return
		}
		h.log.Error("failed to get share", "share_id", shareID, "user_id", user.ID, "error", err)
		WriteInternalError(w, "failed to get share")
		return
	}

	// Repeating the same transition is idempotent; reversing a settled
	// share is a conflict.
	if sh.State == state {
		h.writeTransitionResult(w, shareID, state)
		return
	}
	if sh.State != store.StatePending {
		WriteConflict(w, "share has already been "+sh.State)
		return
	}

	switch state {
	case store.StateAccepted:
		sh, err = h.svc.AcceptLocal(ctx, shareID, user.Username)
	case store.StateDeclined:
		sh, err = h.svc.DeclineLocal(ctx, shareID, user.Username)
	}
	if err != nil {
		h.log.Error("failed to update share state", "share_id", shareID, "error", err)
		WriteInternalError(w, "failed to update share state")
		return
	}

	if h.sender != nil {
		var sendErr error
		if state == store.StateAccepted {
			sendErr = h.sender.SendShareAccepted(ctx, sh)
		} else {
			sendErr = h.sender.SendShareDeclined(ctx, sh)
		}
		if sendErr != nil {
			h.log.Warn("failed to notify sender",
				"share_id", shareID,
				"sender_host", sh.SenderHost,
				"error", sendErr)
		}
	}

	h.writeTransitionResult(w, shareID, state)
}

func (h *SharesHandler) writeTransitionResult(w http.ResponseWriter, shareID, state string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  state,
		"shareId": shareID,
	})
}
