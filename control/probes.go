// File: control/probes.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import "sync"

// Probes holds named introspection hooks. A junction registers a probe
// reporting its registry size and port state; monitoring code dumps all
// probes without knowing who registered them.
type Probes struct {
	mu     sync.RWMutex
	probes map[string]func() any
}

// NewProbes creates a probe registry.
func NewProbes() *Probes {
	return &Probes{
		probes: make(map[string]func() any),
	}
}

// Register inserts a named hook, replacing any previous one.
func (p *Probes) Register(name string, fn func() any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[name] = fn
}

// Unregister removes a named hook.
func (p *Probes) Unregister(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.probes, name)
}

// Dump returns the output of every registered hook.
func (p *Probes) Dump() map[string]any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]any, len(p.probes))
	for k, fn := range p.probes {
		out[k] = fn()
	}
	return out
}
