// Package loader registers cache drivers via blank imports.
// Import this package to ensure the default cache drivers are available.
//
// Usage in main.go:
//
//	import _ "github.com/MahdiBaghbani/ocmgate/internal/cache/loader"
package loader

import (
	// Register the in-memory driver
	_ "github.com/MahdiBaghbani/ocmgate/internal/cache/memory"

	// Register the Valkey driver
	_ "github.com/MahdiBaghbani/ocmgate/internal/cache/valkey"
)
