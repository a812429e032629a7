package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/vmfleet/vmfleet/pkg/api/types/machines"
	"github.com/vmfleet/vmfleet/pkg/domain"
	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
	"github.com/vmfleet/vmfleet/pkg/protocol"
	"github.com/vmfleet/vmfleet/pkg/utils"
)

// session is the state of a single client connection.
//
// current is the machine authenticated on this connection, nil before
// AUTH and after LOGOUT. A connection manages at most one machine.
type session struct {
	conn     net.Conn
	password string
	machines kmachine.Interface
	registry *Registry
	current  *domain.Machine
}

func (s *session) run(ctx context.Context) error {
	defer func() {
		if s.current != nil {
			s.registry.Drop(s.current.VMID)
		}
		s.conn.Close()
	}()

	scan := bufio.NewScanner(s.conn)
	for scan.Scan() {
		cmd, args, ok := protocol.ParseLine(scan.Text())
		if !ok {
			if cmd == "" { // blank line
				continue
			}
			s.reply("unknown command")
			continue
		}

		switch cmd {
		case protocol.Auth:
			s.auth(ctx, args)
		case protocol.AddVM:
			s.addVM(ctx, args)
		case protocol.UpdateVM:
			s.updateVM(ctx, args)
		case protocol.ListConnected:
			s.listConnected()
		case protocol.ListAuthorized:
			s.listMachines(ctx, s.machines.ListAuthorized)
		case protocol.ListAll:
			s.listMachines(ctx, s.machines.ListAll)
		case protocol.ListDisks:
			s.listDisks(ctx)
		case protocol.Logout:
			s.logout(ctx)
		default:
			s.reply("unknown command")
		}
	}
	return scan.Err()
}

func (s *session) reply(format string, args ...any) {
	fmt.Fprintf(s.conn, format+"\n", args...)
}

// AUTH <vm_id> <password>
func (s *session) auth(ctx context.Context, args []string) {
	if len(args) < 2 {
		s.reply("error: not enough arguments for AUTH")
		return
	}
	vmID, password := args[0], args[1]
	if password != s.password {
		s.reply("error: invalid password")
		return
	}
	if s.current != nil {
		s.reply("you are already authorized")
		return
	}

	machine := domain.Machine{VMID: vmID, Authorized: true}
	if err := s.machines.Upsert(ctx, machine); err != nil {
		s.reply("error: %s", err)
		return
	}
	s.current = &machine
	s.registry.Put(machine)
	s.reply("authenticated as VM %s", vmID)
}

// ADD_VM <vm_id> <ram> <cpu> [<disk_id>:<capacity> ...]
func (s *session) addVM(ctx context.Context, args []string) {
	if s.current == nil {
		s.reply("error: not authenticated, run AUTH first")
		return
	}
	if len(args) < 3 {
		s.reply("error: not enough arguments for ADD_VM")
		return
	}
	if args[0] != s.current.VMID {
		s.reply("error: permission denied, you may only manage your own machine")
		return
	}
	ram, errRAM := strconv.Atoi(args[1])
	cpu, errCPU := strconv.Atoi(args[2])
	if errRAM != nil || errCPU != nil {
		s.reply("error: invalid numeric parameter")
		return
	}

	s.current.RAM = ram
	s.current.CPU = cpu
	s.current.Disks = protocol.ParseDiskSpecs(args[3:], s.current.VMID)
	if err := s.machines.Upsert(ctx, *s.current); err != nil {
		s.reply("error: %s", err)
		return
	}
	s.registry.Put(*s.current)
	s.reply("VM %s recorded", s.current.VMID)
}

// UPDATE_VM <ram> <cpu> [<disk_id>:<capacity> ...]
//
// Disks are replaced only when at least one valid spec is given.
func (s *session) updateVM(ctx context.Context, args []string) {
	if s.current == nil {
		s.reply("error: not authenticated")
		return
	}
	if len(args) < 2 {
		s.reply("error: not enough arguments for UPDATE_VM")
		return
	}
	ram, errRAM := strconv.Atoi(args[0])
	cpu, errCPU := strconv.Atoi(args[1])
	if errRAM != nil || errCPU != nil {
		s.reply("error: invalid numeric parameter")
		return
	}

	s.current.RAM = ram
	s.current.CPU = cpu
	if disks := protocol.ParseDiskSpecs(args[2:], s.current.VMID); 0 < len(disks) {
		s.current.Disks = disks
	}
	if err := s.machines.Upsert(ctx, *s.current); err != nil {
		s.reply("error: %s", err)
		return
	}
	s.registry.Put(*s.current)
	s.reply("VM %s updated", s.current.VMID)
}

func (s *session) logout(ctx context.Context) {
	if s.current == nil {
		s.reply("error: not authenticated")
		return
	}
	if err := s.machines.Deauthorize(ctx, s.current.VMID); err != nil {
		s.reply("error: %s", err)
		return
	}
	s.registry.Drop(s.current.VMID)
	vmID := s.current.VMID
	s.current = nil
	s.reply("VM %s logged out", vmID)
}

func (s *session) listConnected() {
	s.replyJSON(utils.Map(s.registry.Snapshot(), machines.ComposeDetail))
}

func (s *session) listMachines(
	ctx context.Context,
	query func(context.Context) ([]domain.Machine, error),
) {
	found, err := query(ctx)
	if err != nil {
		s.reply("error: %s", err)
		return
	}
	s.replyJSON(utils.Map(found, machines.ComposeDetail))
}

func (s *session) listDisks(ctx context.Context) {
	found, err := s.machines.ListDisks(ctx)
	if err != nil {
		s.reply("error: %s", err)
		return
	}
	s.replyJSON(utils.Map(found, machines.ComposeDiskDetail))
}

// replyJSON writes items as a one-line JSON array.
func (s *session) replyJSON(items any) {
	buf, err := json.Marshal(items)
	if err != nil {
		s.reply("error: %s", err)
		return
	}
	s.conn.Write(append(buf, '\n'))
}
