package domain

import (
	"time"

	"github.com/vmfleet/vmfleet/pkg/cmp"
)

// Disk is a block device attached to a Machine.
type Disk struct {
	DiskID   string
	Capacity int

	// id of the machine owning this disk. Can be empty for orphaned disks.
	VMID string
}

func (d *Disk) Equal(o *Disk) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.DiskID == o.DiskID &&
		d.Capacity == o.Capacity &&
		d.VMID == o.VMID
}

// Machine is a virtual machine known to the fleet.
//
// RAM is in MiB. LastSeen is refreshed by the storage layer on each upsert,
// so a zero LastSeen means "not stored yet".
type Machine struct {
	VMID       string
	RAM        int
	CPU        int
	Disks      []Disk
	Authorized bool
	LastSeen   time.Time
}

func (m *Machine) Equal(o *Machine) bool {
	if (m == nil) || (o == nil) {
		return (m == nil) && (o == nil)
	}
	return m.VMID == o.VMID &&
		m.RAM == o.RAM &&
		m.CPU == o.CPU &&
		m.Authorized == o.Authorized &&
		m.LastSeen.Equal(o.LastSeen) &&
		cmp.SliceContentEqWith(
			m.Disks, o.Disks,
			func(a, b Disk) bool { return a.Equal(&b) },
		)
}
