package auto

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	"github.com/vmfleet/vmfleet/pkg/protocol"
)

type Flags struct {
	ID string `flag:"id" help:"machine id to play as. A random one is picked when omitted."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Run a scripted machine session against the server.",
		Flags{},
		flarc.Args{},
		common.NewTask(Task(rand.Intn, time.Second)),
		flarc.WithDescription(`
Simulate a machine: maybe AUTH (decided by coin flip), then ADD_VM,
UPDATE_VM, LIST_DISKS and LOGOUT, pausing between requests. Every
request and reply is printed.

Useful to smoke-test a fleetd deployment.
`),
	)
}

// Task builds the scripted session. randInt and pause are injected so
// tests can pin the coin flip and skip the waits.
func Task(randInt func(n int) int, pause time.Duration) common.Task[Flags] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag common.CommonFlags,
		client session.Client,
		cl flarc.Commandline[Flags],
		params []any,
	) error {
		id := cl.Flags().ID
		if id == "" {
			id = fmt.Sprintf("vm%d", randInt(50)+1)
		}

		script := []string{
			fmt.Sprintf("%s %s 2048 2 disk1_%s:100 disk2:200", protocol.AddVM, id, id),
			fmt.Sprintf("%s 4096 4 disk1_%s:150 disk3:300", protocol.UpdateVM, id),
			string(protocol.ListDisks),
			string(protocol.Logout),
		}
		if randInt(2) == 1 {
			script = append(
				[]string{fmt.Sprintf("%s %s %s", protocol.Auth, id, commonFlag.Password)},
				script...,
			)
		}

		for nth, req := range script {
			if nth != 0 {
				timer := time.NewTimer(pause)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}

			fmt.Fprintln(cl.Stdout(), "send:", req)
			reply, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("%w: no reply from server", err)
			}
			fmt.Fprintln(cl.Stdout(), "recv:", reply)
		}
		return nil
	}
}
