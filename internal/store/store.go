// Package store provides persistence primitives and driver abstractions.
package store

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrClosed        = errors.New("store closed")
)

// Share record types. Shares received over federation are "remote";
// the notification path only ever operates on those.
const (
	ShareTypeRemote = "remote"
)

// Share lifecycle states.
const (
	StatePending  = "pending"
	StateAccepted = "accepted"
	StateDeclined = "declined"
)

// Driver defines the interface for a persistence backend.
// Implementations must be safe for concurrent use.
type Driver interface {
	// Init initializes the driver (create tables, load data, etc).
	Init(ctx context.Context) error

	// Close releases resources held by the driver.
	Close() error

	// Name returns the driver name (json, sqlite).
	Name() string
}

// RemoteShareStore defines operations for remote share persistence.
type RemoteShareStore interface {
	CreateRemoteShare(ctx context.Context, share *RemoteShare) error
	GetRemoteShare(ctx context.Context, id string) (*RemoteShare, error)
	GetRemoteShareByProviderID(ctx context.Context, providerID string) (*RemoteShare, error)
	UpdateRemoteShare(ctx context.Context, share *RemoteShare) error
	DeleteRemoteShare(ctx context.Context, id string) error
	ListRemoteShares(ctx context.Context, recipientUserID string) ([]*RemoteShare, error)
}

// RemoteShare is a share received from (or re-shared via) a federated peer.
type RemoteShare struct {
	ID                string `json:"id" gorm:"primaryKey"`              // local id (UUIDv7)
	ProviderID        string `json:"provider_id" gorm:"uniqueIndex"`    // sender's share id
	ParentID          string `json:"parent_id,omitempty" gorm:"index"`  // set for reshares
	SenderHost        string `json:"sender_host" gorm:"index"`          // sender's provider host
	ShareType         string `json:"share_type"`                        // "remote"
	Token             string `json:"token,omitempty"`                   // shared secret, omitempty for redaction
	Owner             string `json:"owner"`
	OwnerDisplayName  string `json:"owner_display_name,omitempty"`
	Sender            string `json:"sender"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
	ShareWith         string `json:"share_with"`
	RecipientUserID   string `json:"recipient_user_id" gorm:"index"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	ResourceType      string `json:"resource_type"`
	Permissions       string `json:"permissions"` // raw peer value, not mapped locally
	State             string `json:"state"`       // pending, accepted, declined
	CreatedAt         int64  `json:"created_at"`
	UpdatedAt         int64  `json:"updated_at"`
}
