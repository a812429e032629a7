package server

import (
	"sync"

	"github.com/vmfleet/vmfleet/pkg/domain"
)

// Registry tracks machines authenticated on a live connection.
//
// It is an in-memory cache over the live sessions; rows in the database
// outlive it, entries here do not survive a disconnect.
type Registry struct {
	mu      sync.RWMutex
	members map[string]domain.Machine
}

func NewRegistry() *Registry {
	return &Registry{members: map[string]domain.Machine{}}
}

// Put records m as connected, replacing any previous entry for the
// same machine id.
func (r *Registry) Put(m domain.Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.VMID] = m
}

// Drop forgets the machine identified by vmID. Dropping an unknown id
// is a no-op.
func (r *Registry) Drop(vmID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, vmID)
}

// Snapshot returns the machines connected at the time of the call.
func (r *Registry) Snapshot() []domain.Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	machines := make([]domain.Machine, 0, len(r.members))
	for _, mem := range r.members {
		machines = append(machines, mem)
	}
	return machines
}
