// Package sqlite implements a SQLite-based persistence driver using GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MahdiBaghbani/ocmgate/internal/store"
)

func init() {
	store.Register("sqlite", NewDriver)
}

// Driver implements the store.Driver interface using SQLite via GORM.
type Driver struct {
	dataDir string
	db      *gorm.DB
}

// NewDriver creates a new SQLite driver instance.
func NewDriver(cfg *store.DriverConfig) (store.Driver, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required for sqlite driver")
	}

	return &Driver{
		dataDir: cfg.DataDir,
	}, nil
}

// Name returns the driver name.
func (d *Driver) Name() string {
	return "sqlite"
}

// Init initializes the SQLite database and runs AutoMigrate.
func (d *Driver) Init(ctx context.Context) error {
	dbPath := filepath.Join(d.dataDir, "ocmgate.db")

	// TranslateError turns the driver's UNIQUE-constraint failure into
	// gorm.ErrDuplicatedKey, which CreateRemoteShare maps to ErrAlreadyExists.
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	d.db = db

	if err := db.AutoMigrate(&store.RemoteShare{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Driver) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RemoteShareStore implementation

// CreateRemoteShare creates a new remote share record.
func (d *Driver) CreateRemoteShare(ctx context.Context, share *store.RemoteShare) error {
	result := d.db.WithContext(ctx).Create(share)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return store.ErrAlreadyExists
		}
		return result.Error
	}
	return nil
}

// GetRemoteShare retrieves a remote share by local id.
func (d *Driver) GetRemoteShare(ctx context.Context, id string) (*store.RemoteShare, error) {
	var share store.RemoteShare
	result := d.db.WithContext(ctx).First(&share, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, result.Error
	}
	return &share, nil
}

// GetRemoteShareByProviderID retrieves a remote share by the sender's id.
func (d *Driver) GetRemoteShareByProviderID(ctx context.Context, providerID string) (*store.RemoteShare, error) {
	var share store.RemoteShare
	result := d.db.WithContext(ctx).First(&share, "provider_id = ?", providerID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, result.Error
	}
	return &share, nil
}

// UpdateRemoteShare updates an existing remote share.
func (d *Driver) UpdateRemoteShare(ctx context.Context, share *store.RemoteShare) error {
	result := d.db.WithContext(ctx).Save(share)
	return result.Error
}

// DeleteRemoteShare deletes a remote share by local id.
func (d *Driver) DeleteRemoteShare(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&store.RemoteShare{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListRemoteShares returns remote shares for a recipient user.
func (d *Driver) ListRemoteShares(ctx context.Context, recipientUserID string) ([]*store.RemoteShare, error) {
	var shares []*store.RemoteShare
	query := d.db.WithContext(ctx)
	if recipientUserID != "" {
		query = query.Where("recipient_user_id = ?", recipientUserID)
	}
	result := query.Find(&shares)
	if result.Error != nil {
		return nil, result.Error
	}
	return shares, nil
}

// Compile-time interface checks
var _ store.Driver = (*Driver)(nil)
var _ store.RemoteShareStore = (*Driver)(nil)
