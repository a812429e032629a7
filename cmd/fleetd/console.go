package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	apimachines "github.com/vmfleet/vmfleet/pkg/api/types/machines"
	"github.com/vmfleet/vmfleet/pkg/domain"
	kmachine "github.com/vmfleet/vmfleet/pkg/domain/machine/db"
	"github.com/vmfleet/vmfleet/pkg/protocol"
	"github.com/vmfleet/vmfleet/pkg/server"
	"github.com/vmfleet/vmfleet/pkg/utils"
)

// runConsole serves the operator console on in/out.
//
// LIST_* commands print indented JSON listings; EXIT calls quit and
// returns. It also returns when in is exhausted.
func runConsole(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	dbMachine kmachine.Interface,
	registry *server.Registry,
	quit func(),
) {
	scan := bufio.NewScanner(in)
	for scan.Scan() {
		line := scan.Text()
		cmd, _, ok := protocol.ParseLine(line)
		if !ok {
			if cmd == "" {
				continue
			}
			fmt.Fprintln(out, "unknown console command")
			continue
		}

		switch cmd {
		case protocol.Exit:
			fmt.Fprintln(out, "shutting down...")
			quit()
			return
		case protocol.ListConnected:
			fmt.Fprintln(out, "connected machines:")
			printMachines(out, registry.Snapshot())
		case protocol.ListAuthorized:
			found, err := dbMachine.ListAuthorized(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
				continue
			}
			fmt.Fprintln(out, "authorized machines:")
			printMachines(out, found)
		case protocol.ListAll:
			found, err := dbMachine.ListAll(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
				continue
			}
			fmt.Fprintln(out, "all machines:")
			printMachines(out, found)
		case protocol.ListDisks:
			found, err := dbMachine.ListDisks(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
				continue
			}
			fmt.Fprintln(out, "disks:")
			printIndented(out, utils.Map(found, apimachines.ComposeDiskDetail))
		default:
			fmt.Fprintln(out, "unknown console command")
		}
	}
}

func printMachines(out io.Writer, found []domain.Machine) {
	printIndented(out, utils.Map(found, apimachines.ComposeDetail))
}

func printIndented(out io.Writer, items any) {
	buf, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}
	out.Write(append(buf, '\n'))
}
