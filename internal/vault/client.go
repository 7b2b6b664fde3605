// Package vault is the bridge to the external secret store's versioned KV
// API. It is consumed only by the orchestration layer around the secret
// resolver, which keeps the resolver deterministic and network-free.
package vault

import (
	"fmt"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

// requestTimeout is the fixed per-request timeout. Calls are never retried
// here; retry and backoff belong to the surrounding orchestrator.
const requestTimeout = 10 * time.Second

// Bridge is a minimal synchronous client for KV v2 reads and writes under a
// single mount. The authentication token is supplied out-of-band.
type Bridge struct {
	inner *vaultapi.Client
	mount string
}

// NewBridge creates a Bridge pointed at the given address with the KV v2
// mount point (e.g. "secret") and a pre-issued token.
func NewBridge(address, mount, token string) (*Bridge, error) {
	if address == "" {
		return nil, fmt.Errorf("vault address is required")
	}
	if token == "" {
		return nil, fmt.Errorf("vault token is required")
	}
	if mount == "" {
		mount = "secret"
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.Timeout = requestTimeout
	cfg.MaxRetries = 0

	inner, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}
	inner.SetToken(token)

	return &Bridge{inner: inner, mount: mount}, nil
}
