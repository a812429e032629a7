package report_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/youta-t/flarc"

	"github.com/vmfleet/vmfleet/cmd/fleet/session/mock"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/internal/commandline"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/logger"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/report"
	"github.com/vmfleet/vmfleet/pkg/cmp"
)

func TestReportCommand(t *testing.T) {
	commonFlag := common.CommonFlags{
		ServerHost: "localhost", ServerPort: "8888", Password: "secret",
	}

	t.Run("it sends AUTH and ADD_VM, and prints the replies", func(t *testing.T) {
		client := mocks.NewMockClient()
		client.Impl.Do = func(line string) (string, error) { return "ok: " + line, nil }

		stdout := new(bytes.Buffer)
		testee := report.Task()

		err := testee(
			context.Background(),
			logger.Null(),
			commonFlag,
			client,
			commandline.MockCommandline[report.Flags]{
				Stdout_: stdout,
				Flags_: report.Flags{
					ID: "vm1", RAM: "2048", CPU: "2",
					Disk: []string{"disk1:100", "disk2:200"},
				},
			},
			nil,
		)
		if err != nil {
			t.Fatalf("task returns error: %s", err)
		}

		expected := []string{
			"AUTH vm1 secret",
			"ADD_VM vm1 2048 2 disk1:100 disk2:200",
		}
		if !cmp.SliceEq(client.Calls.Do, expected) {
			t.Errorf("unmatch requests: %v, expected: %v", client.Calls.Do, expected)
		}
		if stdout.String() != "ok: AUTH vm1 secret\nok: ADD_VM vm1 2048 2 disk1:100 disk2:200\n" {
			t.Errorf("unmatch output: %s", stdout.String())
		}
	})

	t.Run("it rejects a missing --id as usage error", func(t *testing.T) {
		client := mocks.NewMockClient()
		testee := report.Task()

		err := testee(
			context.Background(),
			logger.Null(),
			commonFlag,
			client,
			commandline.MockCommandline[report.Flags]{
				Stdout_: new(bytes.Buffer),
				Flags_:  report.Flags{RAM: "2048", CPU: "2"},
			},
			nil,
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unmatch error: %v", err)
		}
		if len(client.Calls.Do) != 0 {
			t.Errorf("nothing should be sent: %v", client.Calls.Do)
		}
	})

	t.Run("it rejects non-numeric --ram as usage error", func(t *testing.T) {
		client := mocks.NewMockClient()
		testee := report.Task()

		err := testee(
			context.Background(),
			logger.Null(),
			commonFlag,
			client,
			commandline.MockCommandline[report.Flags]{
				Stdout_: new(bytes.Buffer),
				Flags_:  report.Flags{ID: "vm1", RAM: "lots", CPU: "2"},
			},
			nil,
		)
		if !errors.Is(err, flarc.ErrUsage) {
			t.Errorf("unmatch error: %v", err)
		}
	})

	t.Run("it propagates a broken connection", func(t *testing.T) {
		expectedErr := errors.New("broken pipe")
		client := mocks.NewMockClient()
		client.Impl.Do = func(string) (string, error) { return "", expectedErr }

		testee := report.Task()
		err := testee(
			context.Background(),
			logger.Null(),
			commonFlag,
			client,
			commandline.MockCommandline[report.Flags]{
				Stdout_: new(bytes.Buffer),
				Flags_:  report.Flags{ID: "vm1", RAM: "2048", CPU: "2"},
			},
			nil,
		)
		if !errors.Is(err, expectedErr) {
			t.Errorf("unmatch error: %v", err)
		}
	})
}
