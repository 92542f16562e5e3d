// Package loader registers store drivers via blank imports.
// Import this package to ensure the default persistence drivers are available.
//
// Usage in main.go:
//
//	import _ "github.com/MahdiBaghbani/ocmgate/internal/store/loader"
package loader

import (
	// Register the JSON file driver
	_ "github.com/MahdiBaghbani/ocmgate/internal/store/json"

	// Register the SQLite driver
	_ "github.com/MahdiBaghbani/ocmgate/internal/store/sqlite"
)
