package machines

import (
	"github.com/vmfleet/vmfleet/pkg/api/types/misc/rfctime"
	"github.com/vmfleet/vmfleet/pkg/cmp"
	"github.com/vmfleet/vmfleet/pkg/domain"
	"github.com/vmfleet/vmfleet/pkg/utils"
	"github.com/vmfleet/vmfleet/pkg/utils/pointer"
)

type Disk struct {
	DiskID   string `json:"disk_id"`
	Capacity int    `json:"capacity"`
}

func (d *Disk) Equal(o *Disk) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.DiskID == o.DiskID && d.Capacity == o.Capacity
}

func ComposeDisk(d domain.Disk) Disk {
	return Disk{DiskID: d.DiskID, Capacity: d.Capacity}
}

// Detail is the wire representation of a machine,
// used by both protocol listings and the admin API.
type Detail struct {
	VMID       string           `json:"vm_id"`
	RAM        int              `json:"ram"`
	CPU        int              `json:"cpu"`
	Disks      []Disk           `json:"disks"`
	Authorized bool             `json:"authorized"`
	LastSeen   *rfctime.RFC3339 `json:"last_seen,omitempty"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	if (d.LastSeen == nil) != (o.LastSeen == nil) {
		return false
	}
	return pointer.SafeDeref(d.LastSeen).Equal(pointer.SafeDeref(o.LastSeen)) &&
		d.VMID == o.VMID &&
		d.RAM == o.RAM &&
		d.CPU == o.CPU &&
		d.Authorized == o.Authorized &&
		cmp.SliceContentEqWith(
			d.Disks, o.Disks,
			func(a, b Disk) bool { return a.Equal(&b) },
		)
}

func ComposeDetail(m domain.Machine) Detail {
	det := Detail{
		VMID:       m.VMID,
		RAM:        m.RAM,
		CPU:        m.CPU,
		Disks:      utils.Map(m.Disks, ComposeDisk),
		Authorized: m.Authorized,
	}
	if det.Disks == nil {
		det.Disks = []Disk{}
	}
	if !m.LastSeen.IsZero() {
		det.LastSeen = pointer.Ref(rfctime.New(m.LastSeen))
	}
	return det
}

// DiskDetail is the wire representation of a disk in the fleet-wide disk listing.
//
// VMAssociated repeats the owner id when the owning machine record exists;
// it is empty for orphaned disks.
type DiskDetail struct {
	DiskID       string `json:"disk_id"`
	Capacity     int    `json:"capacity"`
	VMID         string `json:"vm_id,omitempty"`
	VMAssociated string `json:"vm_associated,omitempty"`
}

func (d *DiskDetail) Equal(o *DiskDetail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return *d == *o
}

func ComposeDiskDetail(d domain.Disk) DiskDetail {
	return DiskDetail{
		DiskID:       d.DiskID,
		Capacity:     d.Capacity,
		VMID:         d.VMID,
		VMAssociated: d.VMID,
	}
}
