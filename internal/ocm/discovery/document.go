// Package discovery builds this server's OCM discovery document and fetches
// the documents of remote peers.
package discovery

import (
	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/protocols"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
)

// NewDocument builds the static discovery document for this instance.
// Computed once at startup; the handler serves the same value on every call.
func NewDocument(cfg *config.Config) *spec.Discovery {
	return &spec.Discovery{
		Enabled:    true,
		APIVersion: spec.APIVersion,
		EndPoint:   cfg.OCMEndpoint(),
		Provider:   cfg.Federation.Provider,
		ShareTypes: []spec.ShareType{{
			Name:      spec.ResourceTypeFile,
			Protocols: protocols.List(),
		}},
	}
}
