package logout

import (
	"context"
	"fmt"
	"log"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	"github.com/vmfleet/vmfleet/pkg/protocol"
)

type Flags struct {
	ID string `flag:"id" help:"machine id to log out"`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Mark the machine as no longer authorized.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task()),
		flarc.WithDescription(`
Authenticate as the machine given by --id and log it out (AUTH followed
by LOGOUT). The machine's record stays in the database, marked not
authorized.
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
		if flags.ID == "" {
			return fmt.Errorf("%w: --id is required", flarc.ErrUsage)
		}

		requests := []string{
			fmt.Sprintf("%s %s %s", protocol.Auth, flags.ID, commonFlag.Password),
			string(protocol.Logout),
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
