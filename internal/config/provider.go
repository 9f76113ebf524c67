package config

import (
	"sync/atomic"
)

// Provider serves immutable configuration snapshots. The watcher swaps in
// a new snapshot on file change; readers never block.
type Provider struct {
	current atomic.Pointer[Config]
}

// NewProvider creates a provider seeded with an initial snapshot
func NewProvider(cfg Config) *Provider {
	p := &Provider{}
	p.current.Store(&cfg)
	return p
}

// Snapshot returns the current configuration
func (p *Provider) Snapshot() Config {
	return *p.current.Load()
}

// Swap replaces the snapshot, keeping the fields that must not change at
// runtime pinned to their boot values.
func (p *Provider) Swap(next Config) {
	boot := p.current.Load()
	next.Environment = boot.Environment
	next.Server = boot.Server
	next.Auth = boot.Auth
	next.AWS = boot.AWS
	next.Observability = boot.Observability
	p.current.Store(&next)
}
