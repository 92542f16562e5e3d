// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds the server configuration.
type Config struct {
	// Mode is the effective operating mode: strict or dev.
	Mode string

	// PublicOrigin is the public origin (scheme + host + port) for this instance.
	// Example: "https://cloud.example.org"
	PublicOrigin string

	// ListenAddr is the address to listen on.
	// Example: ":9200"
	ListenAddr string

	Server       ServerConfig
	TLS          TLSConfig
	OutboundHTTP OutboundHTTPConfig
	Store        StoreConfig
	Cache        CacheConfig
	Federation   FederationConfig
	Logging      LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// MaxConns caps concurrent accepted connections (0 = unlimited).
	MaxConns int

	// TrustedProxies are CIDRs whose X-Forwarded-For is honored.
	TrustedProxies []string

	BootstrapAdmin BootstrapAdminConfig
}

// BootstrapAdminConfig holds the initial admin account created at startup.
type BootstrapAdminConfig struct {
	Username string
	Password string
}

// TLSConfig holds TLS-related settings.
type TLSConfig struct {
	// Mode is one of: off, static, selfsigned, acme
	Mode string

	// CertFile and KeyFile for static mode
	CertFile string
	KeyFile  string

	// HTTPPort for HTTP listener (used for ACME challenges and redirects)
	HTTPPort int

	// HTTPSPort for HTTPS listener
	HTTPSPort int

	// SelfSignedDir is where generated certificates are stored
	SelfSignedDir string

	ACME ACMEConfig
}

// ACMEConfig holds ACME certificate settings.
type ACMEConfig struct {
	Email      string
	Domain     string
	Directory  string
	StorageDir string
	UseStaging bool
}

// OutboundHTTPConfig holds settings for outbound HTTP requests.
type OutboundHTTPConfig struct {
	// SSRFMode is one of: strict, off
	SSRFMode string

	// TimeoutMS is the overall request timeout in milliseconds
	TimeoutMS int

	// ConnectTimeoutMS is the connection timeout in milliseconds
	ConnectTimeoutMS int

	// MaxRedirects is the maximum number of redirects to follow
	MaxRedirects int

	// MaxResponseBytes is the maximum response body size
	MaxResponseBytes int64

	// InsecureSkipVerify disables TLS verification (dev-only)
	InsecureSkipVerify bool
}

// StoreConfig holds share persistence settings.
type StoreConfig struct {
	// Driver is one of: json, sqlite
	Driver string

	// DataDir is where the driver keeps its files
	DataDir string
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	// Driver is one of: memory, valkey
	Driver string

	// Drivers carries per-driver sections, keyed by driver name.
	Drivers map[string]any
}

// FederationConfig holds federation exchange settings.
type FederationConfig struct {
	// IncomingEnabled controls whether shares from remote servers are accepted.
	IncomingEnabled bool

	// OutgoingEnabled controls whether local users may share outward.
	OutgoingEnabled bool

	// Provider is the display name advertised in the discovery document.
	Provider string

	// RateLimitPerMinute caps inbound federation requests per peer host
	// (0 = unlimited).
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of: trace, debug, info, warn, error
	Level string

	// AllowSensitive permits logging share tokens (dev-only).
	AllowSensitive bool
}

// Redacted returns a string representation of the config with secrets redacted.
func (c *Config) Redacted() string {
	var sb strings.Builder
	sb.WriteString("Config{\n")
	sb.WriteString(fmt.Sprintf("  Mode: %q,\n", c.Mode))
	sb.WriteString(fmt.Sprintf("  PublicOrigin: %q,\n", c.PublicOrigin))
	sb.WriteString(fmt.Sprintf("  ListenAddr: %q,\n", c.ListenAddr))
	sb.WriteString("  Server: {\n")
	sb.WriteString(fmt.Sprintf("    MaxConns: %d,\n", c.Server.MaxConns))
	sb.WriteString(fmt.Sprintf("    TrustedProxies: %v,\n", c.Server.TrustedProxies))
	sb.WriteString("    BootstrapAdmin: {\n")
	sb.WriteString(fmt.Sprintf("      Username: %q,\n", c.Server.BootstrapAdmin.Username))
	sb.WriteString("      Password: [REDACTED],\n")
	sb.WriteString("    },\n")
	sb.WriteString("  },\n")
	sb.WriteString("  TLS: {\n")
	sb.WriteString(fmt.Sprintf("    Mode: %q,\n", c.TLS.Mode))
	sb.WriteString(fmt.Sprintf("    CertFile: %q,\n", c.TLS.CertFile))
	sb.WriteString(fmt.Sprintf("    KeyFile: %q,\n", c.TLS.KeyFile))
	sb.WriteString(fmt.Sprintf("    HTTPPort: %d,\n", c.TLS.HTTPPort))
	sb.WriteString(fmt.Sprintf("    HTTPSPort: %d,\n", c.TLS.HTTPSPort))
	sb.WriteString(fmt.Sprintf("    SelfSignedDir: %q,\n", c.TLS.SelfSignedDir))
	sb.WriteString("  },\n")
	sb.WriteString("  OutboundHTTP: {\n")
	sb.WriteString(fmt.Sprintf("    SSRFMode: %q,\n", c.OutboundHTTP.SSRFMode))
	sb.WriteString(fmt.Sprintf("    TimeoutMS: %d,\n", c.OutboundHTTP.TimeoutMS))
	sb.WriteString(fmt.Sprintf("    MaxRedirects: %d,\n", c.OutboundHTTP.MaxRedirects))
	sb.WriteString(fmt.Sprintf("    MaxResponseBytes: %d,\n", c.OutboundHTTP.MaxResponseBytes))
	sb.WriteString(fmt.Sprintf("    InsecureSkipVerify: %v,\n", c.OutboundHTTP.InsecureSkipVerify))
	sb.WriteString("  },\n")
	sb.WriteString("  Store: {\n")
	sb.WriteString(fmt.Sprintf("    Driver: %q,\n", c.Store.Driver))
	sb.WriteString(fmt.Sprintf("    DataDir: %q,\n", c.Store.DataDir))
	sb.WriteString("  },\n")
	sb.WriteString("  Cache: {\n")
	sb.WriteString(fmt.Sprintf("    Driver: %q,\n", c.Cache.Driver))
	sb.WriteString(fmt.Sprintf("    DriverSectionsCount: %d,\n", len(c.Cache.Drivers)))
	sb.WriteString("  },\n")
	sb.WriteString("  Federation: {\n")
	sb.WriteString(fmt.Sprintf("    IncomingEnabled: %v,\n", c.Federation.IncomingEnabled))
	sb.WriteString(fmt.Sprintf("    OutgoingEnabled: %v,\n", c.Federation.OutgoingEnabled))
	sb.WriteString(fmt.Sprintf("    Provider: %q,\n", c.Federation.Provider))
	sb.WriteString(fmt.Sprintf("    RateLimitPerMinute: %d,\n", c.Federation.RateLimitPerMinute))
	sb.WriteString("  },\n")
	sb.WriteString("  Logging: {\n")
	sb.WriteString(fmt.Sprintf("    Level: %q,\n", c.Logging.Level))
	sb.WriteString(fmt.Sprintf("    AllowSensitive: %v,\n", c.Logging.AllowSensitive))
	sb.WriteString("  },\n")
	sb.WriteString("}")
	return sb.String()
}

// PublicScheme returns "http" or "https" from PublicOrigin.
// Returns "https" if PublicOrigin is empty or unparseable.
func (c *Config) PublicScheme() string {
	if c.PublicOrigin == "" {
		return "https"
	}
	u, err := url.Parse(c.PublicOrigin)
	if err != nil || u.Scheme == "" {
		return "https"
	}
	return strings.ToLower(u.Scheme)
}

// PublicAuthority returns the lowercased host[:port] from PublicOrigin.
func (c *Config) PublicAuthority() string {
	u, err := url.Parse(c.PublicOrigin)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// OCMEndpoint returns the absolute base URL of the federation endpoints.
func (c *Config) OCMEndpoint() string {
	return strings.TrimRight(c.PublicOrigin, "/") + "/ocm"
}
