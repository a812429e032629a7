package list

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	"github.com/vmfleet/vmfleet/pkg/protocol"
	"github.com/vmfleet/vmfleet/pkg/utils"
)

const ARG_WHAT = "WHAT"

var listings = map[string]protocol.Command{
	"connected":  protocol.ListConnected,
	"authorized": protocol.ListAuthorized,
	"all":        protocol.ListAll,
	"disks":      protocol.ListDisks,
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"List machines or disks known to the server.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_WHAT, Required: true,
				Help: "what to list: connected|authorized|all|disks",
			},
		},
		common.NewTask(Task()),
		flarc.WithDescription(`
Query the server for a listing and print it as indented JSON.

- connected  : machines connected right now
- authorized : machines marked authorized in the database
- all        : every machine ever recorded
- disks      : all disks, with their machine association
`),
	)
}

func Task() common.Task[struct{}] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag common.CommonFlags,
		client session.Client,
		cl flarc.Commandline[struct{}],
		params []any,
	) error {
		what := strings.ToLower(cl.Args()[ARG_WHAT][0])
		cmd, ok := listings[what]
		if !ok {
			known := utils.KeysOf(listings)
			sort.Strings(known)
			return fmt.Errorf(
				"%w: %s should be one of %s",
				flarc.ErrUsage, ARG_WHAT, strings.Join(known, "|"),
			)
		}

		reply, err := client.Do(string(cmd))
		if err != nil {
			return fmt.Errorf("%w: connection to fleetd is broken", err)
		}

		indented := new(bytes.Buffer)
		if err := json.Indent(indented, []byte(reply), "", "  "); err != nil {
			// not JSON; the server replied with an error line.
			return fmt.Errorf("server: %s", reply)
		}
		fmt.Fprintln(cl.Stdout(), indented.String())
		return nil
	}
}
