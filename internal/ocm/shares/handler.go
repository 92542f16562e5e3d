// Package shares handles POST /ocm/shares: the inbound share creation
// pipeline, from request validation down to the persisted remote share.
package shares

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
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/protocols"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

// Handler processes inbound share creation requests.
type Handler struct {
	svc    *share.Service
	mapper RecipientMapper
	logger *slog.Logger
}

// NewHandler creates a share creation handler. A nil mapper defaults to
// the passthrough mapping.
func NewHandler(svc *share.Service, mapper RecipientMapper, logger *slog.Logger) *Handler {
	if mapper == nil {
		mapper = PassthroughMapper{}
	}
	return &Handler{
		svc:    svc,
		mapper: mapper,
		logger: logutil.NoopIfNil(logger),
	}
}

// CreateShare runs the creation pipeline in order, short-circuiting on the
// first failure. Success is 201 with an empty body.
func (h *Handler) CreateShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := appctx.GetLogger(r.Context())

	if !h.svc.IncomingEnabled() {
		log.Warn("share rejected: federated sharing disabled")
		spec.WriteError(w, ocmerr.NotImplemented("server does not support receiving federated shares"))
		return
	}

	var req spec.NewShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse share request", "error", err)
		spec.WriteError(w, ocmerr.BadRequest("invalid request body"))
		return
	}

	if missing := spec.MissingShareFields(&req); len(missing) > 0 {
		log.Warn("share validation failed", "missing", missing)
		spec.WriteError(w, ocmerr.BadRequest(
			"missing required request parameters: "+strings.Join(missing, ", ")))
		return
	}

	if !share.IsValidMountName(req.Name) {
		log.Warn("share rejected: invalid resource name", "name", req.Name)
		spec.WriteError(w, ocmerr.BadRequest("the mountpoint name contains invalid characters"))
		return
	}

	recipient := address.Parse(req.ShareWith)
	localUserID := h.mapper.MapRecipient(r.Context(), recipient.UserID)
	log.Debug("resolved share recipient",
		"share_with", req.ShareWith,
		"user_id", recipient.UserID,
		"mapped_user_id", localUserID)

	if !protocols.IsSupported(req.Protocol.Name) {
		log.Warn("share rejected: unsupported protocol", "protocol", req.Protocol.Name)
		spec.WriteError(w, ocmerr.NotImplemented(
			fmt.Sprintf("protocol %s is not supported", req.Protocol.Name)))
		return
	}

	if !spec.IsSupportedShareType(req.ShareType) {
		log.Warn("share rejected: unsupported share type", "share_type", req.ShareType)
		spec.WriteError(w, ocmerr.NotImplemented("only user shares are supported"))
		return
	}

	if !spec.IsSupportedResourceType(req.ResourceType) {
		log.Warn("share rejected: unsupported resource type", "resource_type", req.ResourceType)
		spec.WriteError(w, ocmerr.NotImplemented("only file resources are supported"))
		return
	}

	if !h.svc.UserExists(r.Context(), localUserID) {
		log.Warn("share rejected: recipient unknown", "user_id", localUserID)
		spec.WriteError(w, ocmerr.BadRequest(
			fmt.Sprintf("user %s does not exist", localUserID)))
		return
	}

	owner := address.ParseWithDisplayName(req.Owner, req.OwnerDisplayName)
	senderIdentity := req.Sender
	if senderIdentity == "" {
		senderIdentity = req.Owner
	}
	sender := address.ParseWithDisplayName(senderIdentity, req.SenderDisplayName)

	record := &store.RemoteShare{
		ProviderID:        req.ProviderID,
		SenderHost:        sender.Host,
		Token:             req.Protocol.Options.SharedSecret,
		Owner:             owner.String(),
		OwnerDisplayName:  owner.DisplayName,
		Sender:            sender.String(),
		SenderDisplayName: sender.DisplayName,
		ShareWith:         req.ShareWith,
		RecipientUserID:   localUserID,
		Name:              req.Name,
		Description:       req.Description,
		ResourceType:      req.ResourceType,
	}

	if err := h.svc.CreateShare(r.Context(), record); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("share rejected: duplicate provider id", "provider_id", req.ProviderID)
			spec.WriteError(w, ocmerr.BadRequest("share already exists"))
			return
		}
		// The owner host can be empty when the owner identity had no @;
		// never interpolate an empty host into the peer-visible message.
		ownerHost := owner.Host
		if ownerHost == "" {
			ownerHost = "remote server"
		}
		log.Error("failed to store share", "error", err, "provider_id", req.ProviderID)
		spec.WriteError(w, ocmerr.Internal(
			fmt.Sprintf("internal server error while processing share from %s", ownerHost)))
		return
	}

	log.Info("share created",
		"share_id", record.ID,
		"provider_id", record.ProviderID,
		"sender_host", record.SenderHost,
		"recipient_user_id", record.RecipientUserID)
	spec.WriteCreated(w)
}
