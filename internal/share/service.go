// Package share implements the collaborator side of federated sharing:
// share lifecycle, recipient lookup, and the per-share secret gate.
package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/ocmerr"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

// Service mediates every share mutation over a pluggable persistence driver.
type Service struct {
	shares store.RemoteShareStore
	users  identity.PartyRepo
	fed    config.FederationConfig
}

// NewService creates a share service.
func NewService(shares store.RemoteShareStore, users identity.PartyRepo, fed config.FederationConfig) *Service {
	return &Service{
		shares: shares,
		users:  users,
		fed:    fed,
	}
}

// IncomingEnabled reports whether shares from remote servers are accepted.
func (s *Service) IncomingEnabled() bool {
	return s.fed.IncomingEnabled
}

// OutgoingEnabled reports whether local users may share outward.
func (s *Service) OutgoingEnabled() bool {
	return s.fed.OutgoingEnabled
}

// UserExists reports whether userID names a known local user.
func (s *Service) UserExists(ctx context.Context, userID string) bool {
	_, err := s.users.GetByUsername(ctx, userID)
	return err == nil
}

// CreateShare persists a new incoming share. The local ID is assigned here;
// a duplicate providerId surfaces as store.ErrAlreadyExists.
func (s *Service) CreateShare(ctx context.Context, share *store.RemoteShare) error {
	if share.ID == "" {
		share.ID = newID()
	}
	if share.ShareType == "" {
		share.ShareType = store.ShareTypeRemote
	}
	if share.State == "" {
		share.State = store.StatePending
	}
	now := time.Now().Unix()
	share.CreatedAt = now
	share.UpdatedAt = now

	return s.shares.CreateRemoteShare(ctx, share)
}

// ResolveAuthorized fetches a share by providerId and authenticates the caller.
// A missing share propagates store.ErrNotFound unchanged; the caller decides
// how to surface it. A record of the wrong type yields BadRequest, a secret
// mismatch Forbidden. This is the sole authorization gate for notifications.
func (s *Service) ResolveAuthorized(ctx context.Context, providerID, secret string) (*store.RemoteShare, error) {
	share, err := s.shares.GetRemoteShareByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if share.ShareType != store.ShareTypeRemote {
		return nil, ocmerr.BadRequest(fmt.Sprintf("share %s is not a remote share", providerID))
	}

	if share.Token != secret {
		return nil, ocmerr.Forbidden("invalid shared secret")
	}

	return share, nil
}

// Accept marks a share accepted.
func (s *Service) Accept(ctx context.Context, providerID, secret string) (*store.RemoteShare, error) {
	return s.transition(ctx, providerID, secret, store.StateAccepted)
}

// Decline marks a share declined.
func (s *Service) Decline(ctx context.Context, providerID, secret string) (*store.RemoteShare, error) {
	return s.transition(ctx, providerID, secret, store.StateDeclined)
}

func (s *Service) transition(ctx context.Context, providerID, secret, state string) (*store.RemoteShare, error) {
	share, err := s.ResolveAuthorized(ctx, providerID, secret)
	if err != nil {
		return nil, err
	}

	share.State = state
	share.UpdatedAt = time.Now().Unix()
	if err := s.shares.UpdateRemoteShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// Reshare creates a child share of an existing one for a new local recipient.
// The child gets a fresh providerId and token and starts with zero
// permissions; permission mapping from the peer's vocabulary is left to the
// caller and is not performed here.
func (s *Service) Reshare(ctx context.Context, providerID, secret, recipientUserID string) (*store.RemoteShare, error) {
	parent, err := s.ResolveAuthorized(ctx, providerID, secret)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	child := &store.RemoteShare{
		ID:                newID(),
		ProviderID:        newID(),
		ParentID:          parent.ID,
		SenderHost:        parent.SenderHost,
		ShareType:         store.ShareTypeRemote,
		Token:             newID(),
		Owner:             parent.Owner,
		OwnerDisplayName:  parent.OwnerDisplayName,
		Sender:            parent.Sender,
		SenderDisplayName: parent.SenderDisplayName,
		ShareWith:         recipientUserID,
		RecipientUserID:   recipientUserID,
		Name:              parent.Name,
		Description:       parent.Description,
		ResourceType:      parent.ResourceType,
		Permissions:       "0",
		State:             store.StatePending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.shares.CreateRemoteShare(ctx, child); err != nil {
		return nil, err
	}
	return child, nil
}

// UpdatePermissions stores the peer-supplied permission value verbatim.
func (s *Service) UpdatePermissions(ctx context.Context, providerID, secret, permission string) (*store.RemoteShare, error) {
	share, err := s.ResolveAuthorized(ctx, providerID, secret)
	if err != nil {
		return nil, err
	}

	share.Permissions = permission
	share.UpdatedAt = time.Now().Unix()
	if err := s.shares.UpdateRemoteShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// Unshare removes a share. Authentication happens inside this operation:
// the record is looked up and the secret checked before deletion.
func (s *Service) Unshare(ctx context.Context, providerID, secret string) error {
	share, err := s.ResolveAuthorized(ctx, providerID, secret)
	if err != nil {
		return err
	}
	return s.shares.DeleteRemoteShare(ctx, share.ID)
}

// Revoke removes a reshare after authenticating against it.
func (s *Service) Revoke(ctx context.Context, providerID, secret string) error {
	share, err := s.ResolveAuthorized(ctx, providerID, secret)
	if err != nil {
		return err
	}
	return s.shares.DeleteRemoteShare(ctx, share.ID)
}

// GetForRecipient returns a share by local id, but only if it belongs to the
// given recipient.
func (s *Service) GetForRecipient(ctx context.Context, id, recipientUserID string) (*store.RemoteShare, error) {
	share, err := s.shares.GetRemoteShare(ctx, id)
	if err != nil {
		return nil, err
	}
	if share.RecipientUserID != recipientUserID {
		return nil, store.ErrNotFound
	}
	return share, nil
}

// ListForRecipient returns all shares addressed to the given local user.
func (s *Service) ListForRecipient(ctx context.Context, recipientUserID string) ([]*store.RemoteShare, error) {
	return s.shares.ListRemoteShares(ctx, recipientUserID)
}

// AcceptLocal marks a received share accepted on behalf of its recipient.
// Used by the local API, where the recipient is authenticated by credentials
// rather than the share secret.
func (s *Service) AcceptLocal(ctx context.Context, id, recipientUserID string) (*store.RemoteShare, error) {
	return s.transitionLocal(ctx, id, recipientUserID, store.StateAccepted)
}

// DeclineLocal marks a received share declined on behalf of its recipient.
func (s *Service) DeclineLocal(ctx context.Context, id, recipientUserID string) (*store.RemoteShare, error) {
	return s.transitionLocal(ctx, id, recipientUserID, store.StateDeclined)
}

func (s *Service) transitionLocal(ctx context.Context, id, recipientUserID, state string) (*store.RemoteShare, error) {
	share, err := s.GetForRecipient(ctx, id, recipientUserID)
	if err != nil {
		return nil, err
	}

	share.State = state
	share.UpdatedAt = time.Now().Unix()
	if err := s.shares.UpdateRemoteShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// IsNotFound reports whether err is the store's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
