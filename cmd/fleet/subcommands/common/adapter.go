package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTaskWithCommonFlag picks the group-level CommonFlags out of the
// positional params flarc passes down, and hands them to task along
// with a logger writing to the command's stderr.
func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(ctx, logger, commonFlag, cl, newpos)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	client session.Client,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask wraps task so that it runs with a connection to fleetd,
// dialed from the common flags and closed when the task returns.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		address := net.JoinHostPort(commonFlag.ServerHost, commonFlag.ServerPort)
		client, err := session.Dial(ctx, address)
		if err != nil {
			return fmt.Errorf("%w: can not connect to fleetd at %s", err, address)
		}
		defer client.Close()

		return task(ctx, logger, commonFlag, client, cl, params)
	})
}
