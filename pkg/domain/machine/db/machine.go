package db

import (
	"context"

	"github.com/vmfleet/vmfleet/pkg/domain"
)

type Interface interface {
	// Upsert inserts or updates a machine record and its disks.
	//
	// last_seen of the machine is refreshed.
	// Disks are upserted one by one; disks absent from m.Disks are left as they are.
	//
	// # Args
	//
	// - context.Context
	//
	// - domain.Machine: machine to be stored.
	//
	// # Returns
	//
	// - error
	Upsert(ctx context.Context, m domain.Machine) error

	// Get returns the machine identified by vmID, with its disks.
	//
	// When no such machine is stored, it returns kpgerr.Missing.
	Get(ctx context.Context, vmID string) (domain.Machine, error)

	// Deauthorize marks the machine identified by vmID as not authorized.
	//
	// last_seen of the machine is refreshed.
	// When no such machine is stored, it returns kpgerr.Missing.
	Deauthorize(ctx context.Context, vmID string) error

	// ListAuthorized returns machines stored with authorized = true.
	ListAuthorized(ctx context.Context) ([]domain.Machine, error)

	// ListAll returns every machine ever stored, with its disks.
	ListAll(ctx context.Context) ([]domain.Machine, error)

	// ListDisks returns all disks, including ones not bound to any machine.
	ListDisks(ctx context.Context) ([]domain.Disk, error)
}
