package domain

// domain package contains the Domain Model types of vmfleet.
//
// `domain/ENTITY.go` has high-level entities and functions.
// For example, `domain/machine.go` contains the `Machine` entity.
//
// `domain/ENTITY/db` directory contains the RDB representation of the entity:
// `interface.go` (or the package root file) exposes the client interface,
// `postgres/` implements it, and `mock/` provides a test double.
//
// # Entities
//
// - `machine`: a virtual machine monitored by the fleetd daemon.
// Each machine connects over TCP, authenticates with the shared password,
// and reports its hardware profile. Machines are persisted with their disks,
// so that fleet history survives disconnects and daemon restarts.
