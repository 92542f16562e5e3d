package store

import (
	"fmt"
	"sync"

	"github.com/MahdiBaghbani/ocmgate/internal/cfg"
)

// DriverConfig holds configuration for driver selection and initialization.
type DriverConfig struct {
	// Driver is the driver name: json, sqlite
	Driver string `json:"driver" mapstructure:"driver"`

	// DataDir is the directory for data files (json files, sqlite db)
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ApplyDefaults sets default values for unset fields.
func (c *DriverConfig) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "json"
	}
	if c.DataDir == "" {
		c.DataDir = ".ocmgate/data"
	}
}

// DriverFactory is a function that creates a driver instance.
type DriverFactory func(cfg *DriverConfig) (Driver, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]DriverFactory)
)

// Register registers a driver factory by name.
// This is typically called from init() in driver packages.
func Register(name string, factory DriverFactory) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = factory
}

// New creates a driver instance based on the configuration.
func New(cfg *DriverConfig) (Driver, error) {
	driversMu.RLock()
	factory, ok := drivers[cfg.Driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	return factory(cfg)
}

// NewFromMap decodes a raw config map into a DriverConfig and creates the
// driver. The map comes straight from the [store] TOML section.
func NewFromMap(raw map[string]any) (Driver, error) {
	var dc DriverConfig
	if err := cfg.Decode(raw, &dc); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	return New(&dc)
}

// AvailableDrivers returns the list of registered driver names.
func AvailableDrivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}
