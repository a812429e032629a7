package db

import (
	"context"

	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
)

type FleetDatabase interface {
	Machines() kmachine.Interface

	// EnsureSchema creates the tables of vmfleet when they are missing.
	EnsureSchema(ctx context.Context) error

	// Ping checks the database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
