package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MahdiBaghbani/ocmgate/internal/appctx"
	"github.com/MahdiBaghbani/ocmgate/internal/logutil"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/address"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/ocmerr"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

// Handler dispatches peer notifications to share lifecycle transitions.
type Handler struct {
	svc    *share.Service
	logger *slog.Logger
}

// NewHandler creates a notification handler.
func NewHandler(svc *share.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logutil.NoopIfNil(logger),
	}
}

// ProcessNotification validates the envelope, then runs exactly one
// transition for the notification type. Success is 201 with an empty body.
func (h *Handler) ProcessNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := appctx.GetLogger(r.Context())

	var req spec.NewNotification
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse notification", "error", err)
		spec.WriteError(w, ocmerr.BadRequest("invalid request body"))
		return
	}

	if missing := spec.MissingNotificationFields(&req); len(missing) > 0 {
		log.Warn("notification validation failed", "missing", missing)
		spec.WriteError(w, ocmerr.BadRequest(
			"missing required request parameters: "+strings.Join(missing, ", ")))
		return
	}

	if !spec.IsSupportedResourceType(req.ResourceType) {
		log.Warn("notification rejected: unsupported resource type", "resource_type", req.ResourceType)
		spec.WriteError(w, ocmerr.NotImplemented("only file resources are supported"))
		return
	}

	// Unknown types are a terminal outcome of their own, decided before any
	// lookup so they can never fall through to the internal-error path.
	if !IsKnownType(req.NotificationType) {
		log.Info("unsupported notification type", "notification_type", req.NotificationType)
		spec.WriteErrorMessage(w, http.StatusNotImplemented,
			fmt.Sprintf("unknown notification type %s", req.NotificationType))
		return
	}

	if err := h.dispatch(r, &req); err != nil {
		h.writeTransitionError(w, log, &req, err)
		return
	}

	log.Info("notification processed",
		"notification_type", req.NotificationType,
		"provider_id", req.ProviderID)
	spec.WriteCreated(w)
}

// dispatch runs the transition for a known notification type. Each case
// first checks the payload fields that type requires.
func (h *Handler) dispatch(r *http.Request, req *spec.NewNotification) error {
	ctx := r.Context()
	payload := req.Notification

	if payload.SharedSecret == "" {
		return ocmerr.BadRequest("missing shared secret in notification payload")
	}

	switch req.NotificationType {
	case TypeShareAccepted:
		_, err := h.svc.Accept(ctx, req.ProviderID, payload.SharedSecret)
		return err

	case TypeShareDeclined:
		_, err := h.svc.Decline(ctx, req.ProviderID, payload.SharedSecret)
		return err

	case TypeRequestReshare:
		if payload.ShareWith == "" {
			return ocmerr.BadRequest("missing shareWith in notification payload")
		}
		recipient := address.Parse(payload.ShareWith)
		_, err := h.svc.Reshare(ctx, req.ProviderID, payload.SharedSecret, recipient.UserID)
		return err

	case TypeReshareChangePermission:
		if payload.Permission == "" {
			return ocmerr.BadRequest("missing permission in notification payload")
		}
		_, err := h.svc.UpdatePermissions(ctx, req.ProviderID, payload.SharedSecret, payload.Permission)
		return err

	case TypeShareUnshared:
		return h.svc.Unshare(ctx, req.ProviderID, payload.SharedSecret)

	case TypeReshareUndo:
		return h.svc.Revoke(ctx, req.ProviderID, payload.SharedSecret)
	}

	// Unreachable: IsKnownType gates dispatch.
	return ocmerr.Internal("unhandled notification type")
}

// writeTransitionError maps transition failures to peer-visible responses.
// A missing share is downgraded to 400 here: notifications must not reveal
// whether the share existed versus the secret being wrong.
func (h *Handler) writeTransitionError(w http.ResponseWriter, log *slog.Logger, req *spec.NewNotification, err error) {
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("notification target not found",
			"notification_type", req.NotificationType,
			"provider_id", req.ProviderID)
		spec.WriteError(w, ocmerr.BadRequest(
			fmt.Sprintf("share %s could not be processed", req.ProviderID)))
		return
	}

	var oe *ocmerr.Error
	if errors.As(err, &oe) {
		log.Warn("notification rejected",
			"notification_type", req.NotificationType,
			"provider_id", req.ProviderID,
			"status", oe.Status)
		spec.WriteError(w, oe)
		return
	}

	log.Error("notification processing failed",
		"notification_type", req.NotificationType,
		"provider_id", req.ProviderID,
		"error", err)
	spec.WriteError(w, ocmerr.Internal("internal server error while processing notification"))
}
