// Package json implements a JSON file-based persistence driver.
// It uses atomic writes (temp file + fsync + rename) and in-process locking.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

func init() {
	store.Register("json", NewDriver)
}

// Driver implements the store.Driver interface using JSON files.
type Driver struct {
	dataDir string
	mu      sync.RWMutex
	closed  bool

	// In-memory state loaded from JSON, keyed by local share id
	shares map[string]*store.RemoteShare

	// Secondary index: providerId -> share id
	providerIndex map[string]string
}

// NewDriver creates a new JSON driver instance.
func NewDriver(cfg *store.DriverConfig) (store.Driver, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for json driver")
	}

	return &Driver{
		dataDir:       cfg.DataDir,
		shares:        make(map[string]*store.RemoteShare),
		providerIndex: make(map[string]string),
	}, nil
}

// Name returns the driver name.
func (d *Driver) Name() string {
	return "json"
}

// Init loads data from JSON files.
func (d *Driver) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := d.loadFile("remote_shares.json", &d.shares); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load remote shares: %w", err)
	}

	d.rebuildIndexes()

	return nil
}

// Close releases resources.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) loadFile(filename string, target interface{}) error {
	path := filepath.Join(d.dataDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// saveFile atomically writes data to a JSON file.
// Pattern: write to temp file, fsync, rename.
func (d *Driver) saveFile(filename string, data interface{}) error {
	path := filepath.Join(d.dataDir, filename)
	tempPath := path + ".tmp"

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(jsonData); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// rebuildIndexes rebuilds secondary indexes from primary data.
func (d *Driver) rebuildIndexes() {
	d.providerIndex = make(map[string]string)

	for id, share := range d.shares {
		if share.ProviderID != "" {
			d.providerIndex[share.ProviderID] = id
		}
	}
}

// RemoteShareStore implementation

// cloneShare copies a record at the lock boundary. The maps hold private
// copies and callers get private copies, so a caller mutating its result
// (services do this before calling Update) never races a concurrent read.
func cloneShare(s *store.RemoteShare) *store.RemoteShare {
	c := *s
	return &c
}

// CreateRemoteShare creates a new remote share record.
func (d *Driver) CreateRemoteShare(ctx context.Context, share *store.RemoteShare) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return store.ErrClosed
	}

	if _, exists := d.shares[share.ID]; exists {
		return store.ErrAlreadyExists
	}
	if _, exists := d.providerIndex[share.ProviderID]; exists {
		return store.ErrAlreadyExists
	}

	d.shares[share.ID] = cloneShare(share)
	d.providerIndex[share.ProviderID] = share.ID

	return d.saveFile("remote_shares.json", d.shares)
}

// GetRemoteShare retrieves a remote share by local id.
func (d *Driver) GetRemoteShare(ctx context.Context, id string) (*store.RemoteShare, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, store.ErrClosed
	}

	share, ok := d.shares[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneShare(share), nil
}

// GetRemoteShareByProviderID retrieves a remote share by the sender's id.
func (d *Driver) GetRemoteShareByProviderID(ctx context.Context, providerID string) (*store.RemoteShare, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, store.ErrClosed
	}

	id, ok := d.providerIndex[providerID]
	if !ok {
		return nil, store.ErrNotFound
	}

	share, ok := d.shares[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneShare(share), nil
}

// UpdateRemoteShare updates an existing remote share.
func (d *Driver) UpdateRemoteShare(ctx context.Context, share *store.RemoteShare) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return store.ErrClosed
	}

	existing, exists := d.shares[share.ID]
	if !exists {
		return store.ErrNotFound
	}

	if existing.ProviderID != share.ProviderID {
		delete(d.providerIndex, existing.ProviderID)
	}
	d.shares[share.ID] = cloneShare(share)
	d.providerIndex[share.ProviderID] = share.ID

	return d.saveFile("remote_shares.json", d.shares)
}

// DeleteRemoteShare deletes a remote share by local id.
func (d *Driver) DeleteRemoteShare(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return store.ErrClosed
	}

	share, exists := d.shares[id]
	if !exists {
		return store.ErrNotFound
	}

	delete(d.providerIndex, share.ProviderID)
	delete(d.shares, id)

	return d.saveFile("remote_shares.json", d.shares)
}

// ListRemoteShares returns remote shares for a recipient user.
func (d *Driver) ListRemoteShares(ctx context.Context, recipientUserID string) ([]*store.RemoteShare, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, store.ErrClosed
	}

	shares := make([]*store.RemoteShare, 0)
	for _, share := range d.shares {
		if recipientUserID == "" || share.RecipientUserID == recipientUserID {
			shares = append(shares, cloneShare(share))
		}
	}
	return shares, nil
}

// Compile-time interface checks
var _ store.Driver = (*Driver)(nil)
var _ store.RemoteShareStore = (*Driver)(nil)
