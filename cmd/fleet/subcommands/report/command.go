package report

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	"github.com/vmfleet/vmfleet/pkg/protocol"
)

type Flags struct {
	ID   string   `flag:"id" help:"machine id to report as"`
	RAM  string   `flag:"ram" help:"RAM in MiB"`
	CPU  string   `flag:"cpu" help:"number of CPUs"`
	Disk []string `flag:"disk" metavar:"DISK_ID:CAPACITY" help:"disk of the machine. Repeatable."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Authenticate and report the machine's hardware profile.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Authenticate as the machine given by --id and record its RAM, CPU and
disks on the server, in a single session (AUTH followed by ADD_VM).

Server replies are printed line by line.
`),
	)
}

func Task() common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag common.CommonFlags,
		client session.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		flags := cl.Flags()
		if err := validate(flags); err != nil {
			return err
		}

		requests := []string{
			fmt.Sprintf("%s %s %s", protocol.Auth, flags.ID, commonFlag.Password),
			strings.Join(append(
				[]string{
					string(protocol.AddVM), flags.ID, flags.RAM, flags.CPU,
				},
				flags.Disk...,
			), " "),
		}

		for _, req := range requests {
			reply, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: connection to fleetd is broken", err)
			}
			fmt.Fprintln(cl.Stdout(), reply)
		}
		return nil
	}
}

func validate(flags Flags) error {
	if flags.ID == "" {
		return fmt.Errorf("%w: --id is required", flarc.ErrUsage)
	}
	for name, value := range map[string]string{
		"--ram": flags.RAM, "--cpu": flags.CPU,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s is required", flarc.ErrUsage, name)
		}
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: %s should be an integer", flarc.ErrUsage, name)
		}
	}
	return nil
}
