package postgres

import (
	"context"

	"github.com/jackc/pgtype"
	kpool "github.com/vmfleet/vmfleet/pkg/conn/db/postgres/pool"
	"github.com/vmfleet/vmfleet/pkg/conn/db/postgres/scanner"
	"github.com/vmfleet/vmfleet/pkg/domain"
	kpgerr "github.com/vmfleet/vmfleet/pkg/domain/errors/dberrors/postgres"
	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
)

type machinePG struct { // implements db.Interface
	pool kpool.Pool
}

func New(pool kpool.Pool) kmachine.Interface {
	return &machinePG{pool: pool}
}

type machineRecord struct {
	VMID       string           `sql:"vm_id"`
	RAM        int              `sql:"ram"`
	CPU        int              `sql:"cpu"`
	Authorized bool             `sql:"authorized"`
	LastSeen   pgtype.Timestamp `sql:"last_seen"`
}

func (r machineRecord) body() domain.Machine {
	m := domain.Machine{
		VMID:       r.VMID,
		RAM:        r.RAM,
		CPU:        r.CPU,
		Authorized: r.Authorized,
	}
	if r.LastSeen.Status == pgtype.Present {
		m.LastSeen = r.LastSeen.Time
	}
	return m
}

type diskRecord struct {
	DiskID   string      `sql:"disk_id"`
	Capacity int         `sql:"capacity"`
	VMID     pgtype.Text `sql:"vm_id"`
}

func (r diskRecord) body() domain.Disk {
	d := domain.Disk{DiskID: r.DiskID, Capacity: r.Capacity}
	if r.VMID.Status == pgtype.Present {
		d.VMID = r.VMID.String
	}
	return d
}

func (m *machinePG) Upsert(ctx context.Context, machine domain.Machine) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`
		insert into "virtual_machines" ("vm_id", "ram", "cpu", "authorized")
		values ($1, $2, $3, $4)
		on conflict ("vm_id") do update
		set "ram" = $2, "cpu" = $3, "authorized" = $4, "last_seen" = current_timestamp
		`,
		machine.VMID, machine.RAM, machine.CPU, machine.Authorized,
	); err != nil {
		return kpgerr.Translate(err, "virtual_machines", machine.VMID)
	}

	for _, disk := range machine.Disks {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "disks" ("disk_id", "capacity", "vm_id")
			values ($1, $2, $3)
			on conflict ("disk_id") do update
			set "capacity" = $2, "vm_id" = $3
			`,
			disk.DiskID, disk.Capacity, machine.VMID,
		); err != nil {
			return kpgerr.Translate(err, "disks", disk.DiskID)
		}
	}

	return tx.Commit(ctx)
}

func (m *machinePG) Get(ctx context.Context, vmID string) (domain.Machine, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return domain.Machine{}, err
	}
	defer conn.Release()

	records, err := scanner.New[machineRecord]().QueryAll(
		ctx, conn,
		`
		select "vm_id", "ram", "cpu", "authorized", "last_seen"
		from "virtual_machines" where "vm_id" = $1
		`,
		vmID,
	)
	if err != nil {
		return domain.Machine{}, err
	}
	if len(records) == 0 {
		return domain.Machine{}, kpgerr.Missing{
			Table: "virtual_machines", Identity: vmID,
		}
	}
	machine := records[0].body()

	disks, err := scanner.New[diskRecord]().QueryAll(
		ctx, conn,
		`
		select "disk_id", "capacity", "vm_id"
		from "disks" where "vm_id" = $1
		`,
		vmID,
	)
	if err != nil {
		return domain.Machine{}, err
	}
	for _, d := range disks {
		machine.Disks = append(machine.Disks, d.body())
	}

	return machine, nil
}

func (m *machinePG) Deauthorize(ctx context.Context, vmID string) error {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "virtual_machines"
		set "authorized" = false, "last_seen" = current_timestamp
		where "vm_id" = $1
		`,
		vmID,
	)
	if err != nil {
		return kpgerr.Translate(err, "virtual_machines", vmID)
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "virtual_machines", Identity: vmID}
	}
	return nil
}

func (m *machinePG) ListAuthorized(ctx context.Context) ([]domain.Machine, error) {
	return m.list(
		ctx,
		`
		select "vm_id", "ram", "cpu", "authorized", "last_seen"
		from "virtual_machines" where "authorized"
		`,
	)
}

func (m *machinePG) ListAll(ctx context.Context) ([]domain.Machine, error) {
	return m.list(
		ctx,
		`
		select "vm_id", "ram", "cpu", "authorized", "last_seen"
		from "virtual_machines"
		`,
	)
}

func (m *machinePG) list(ctx context.Context, sql string) ([]domain.Machine, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	records, err := scanner.New[machineRecord]().QueryAll(ctx, conn, sql)
	if err != nil {
		return nil, err
	}

	machines := make([]domain.Machine, len(records))
	index := map[string]int{}
	vmIds := make([]string, len(records))
	for nth, r := range records {
		machines[nth] = r.body()
		index[r.VMID] = nth
		vmIds[nth] = r.VMID
	}

	if len(vmIds) == 0 {
		return machines, nil
	}

	disks, err := scanner.New[diskRecord]().QueryAll(
		ctx, conn,
		`
		select "disk_id", "capacity", "vm_id"
		from "disks" where "vm_id" = any($1::text[])
		`,
		vmIds,
	)
	if err != nil {
		return nil, err
	}
	for _, d := range disks {
		nth, ok := index[d.VMID.String]
		if !ok {
			continue
		}
		machines[nth].Disks = append(machines[nth].Disks, d.body())
	}

	return machines, nil
}

func (m *machinePG) ListDisks(ctx context.Context) ([]domain.Disk, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	// left join keeps disks whose machine row is gone or unset.
	records, err := scanner.New[diskRecord]().QueryAll(
		ctx, conn,
		`
		select "d"."disk_id", "d"."capacity", "v"."vm_id"
		from "disks" as "d"
		left join "virtual_machines" as "v" on "d"."vm_id" = "v"."vm_id"
		`,
	)
	if err != nil {
		return nil, err
	}

	disks := make([]domain.Disk, len(records))
	for nth, r := range records {
		disks[nth] = r.body()
	}
	return disks, nil
}
