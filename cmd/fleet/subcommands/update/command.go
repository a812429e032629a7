package update

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
	ID   string   `flag:"id" help:"machine id to update"`
	RAM  string   `flag:"ram" help:"new RAM in MiB"`
	CPU  string   `flag:"cpu" help:"new number of CPUs"`
	Disk []string `flag:"disk" metavar:"DISK_ID:CAPACITY" help:"disk of the machine. Repeatable. When omitted, disks are left as they are."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Update the machine's hardware profile on the server.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Authenticate as the machine given by --id and replace its recorded RAM
and CPU (AUTH followed by UPDATE_VM). Disks are replaced only when at
least one --disk is given.
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
				[]string{string(protocol.UpdateVM), flags.RAM, flags.CPU},
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
