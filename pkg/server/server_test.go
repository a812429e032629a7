package server_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	apimachines "github.com/vmfleet/vmfleet/pkg/api/types/machines"
	"github.com/vmfleet/vmfleet/pkg/cmp"
	"github.com/vmfleet/vmfleet/pkg/domain"
	mocks "github.com/vmfleet/vmfleet/pkg/domain/machine/db/mock"
	"github.com/vmfleet/vmfleet/pkg/server"

	kctx "github.com/vmfleet/vmfleet/internal/testutils/context"
)

type testClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, address string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("can not connect to test server: %s", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) exchange(t *testing.T, req string) string {
	t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\n", req); err != nil {
		t.Fatalf("can not send %q: %s", req, err)
	}
	reply, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("no reply for %q: %s", req, err)
	}
	return strings.TrimSuffix(reply, "\n")
}

func startServer(t *testing.T, mock *mocks.MockMachineInterface) (string, context.CancelFunc) {
	t.Helper()

	ctx, cancel := kctx.WithTest(context.Background(), t)
	ctx, stop := context.WithCancel(ctx)
	t.Cleanup(cancel)
	t.Cleanup(stop)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("can not listen: %s", err)
	}

	srv := server.New("secret", mock, log.New(io.Discard, "", log.LstdFlags))
	go srv.Serve(ctx, lis)

	return lis.Addr().String(), stop
}

func TestServer_auth(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	addr, _ := startServer(t, mock)

	t.Run("it rejects AUTH with too few arguments", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "AUTH vm1"); actual != "error: not enough arguments for AUTH" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("it rejects AUTH with a wrong password", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "AUTH vm1 wrong"); actual != "error: invalid password" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("it authenticates and stores the machine", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "AUTH vm1 secret"); actual != "authenticated as VM vm1" {
			t.Errorf("unmatch reply: %s", actual)
		}

		stored := mock.Calls.Upsert[len(mock.Calls.Upsert)-1]
		if stored.VMID != "vm1" || !stored.Authorized {
			t.Errorf("unexpected machine stored: %+v", stored)
		}

		t.Run("and rejects a second AUTH on the same connection", func(t *testing.T) {
			if actual := cl.exchange(t, "AUTH vm1 secret"); actual != "you are already authorized" {
				t.Errorf("unmatch reply: %s", actual)
			}
		})
	})
}

func TestServer_addVM(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	addr, _ := startServer(t, mock)

	t.Run("it rejects ADD_VM before AUTH", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "ADD_VM vm1 2048 2"); actual != "error: not authenticated, run AUTH first" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("on an authenticated connection", func(t *testing.T) {
		cl := dial(t, addr)
		cl.exchange(t, "AUTH vm1 secret")

		t.Run("it rejects ADD_VM for another machine", func(t *testing.T) {
			actual := cl.exchange(t, "ADD_VM vm2 2048 2")
			if actual != "error: permission denied, you may only manage your own machine" {
				t.Errorf("unmatch reply: %s", actual)
			}
		})

		t.Run("it rejects non-numeric ram or cpu", func(t *testing.T) {
			if actual := cl.exchange(t, "ADD_VM vm1 lots 2"); actual != "error: invalid numeric parameter" {
				t.Errorf("unmatch reply: %s", actual)
			}
		})

		t.Run("it records the machine, skipping malformed disk specs", func(t *testing.T) {
			actual := cl.exchange(t, "ADD_VM vm1 2048 2 disk1:100 malformed disk2:NaN")
			if actual != "VM vm1 recorded" {
				t.Errorf("unmatch reply: %s", actual)
			}

			stored := mock.Calls.Upsert[len(mock.Calls.Upsert)-1]
			expected := domain.Machine{
				VMID: "vm1", RAM: 2048, CPU: 2, Authorized: true,
				Disks: []domain.Disk{
					{DiskID: "disk1", Capacity: 100, VMID: "vm1"},
				},
			}
			if !stored.Equal(&expected) {
				t.Errorf("unexpected machine stored: %+v", stored)
			}
		})
	})
}

func TestServer_updateVM(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	addr, _ := startServer(t, mock)

	t.Run("it rejects UPDATE_VM before AUTH", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "UPDATE_VM 4096 4"); actual != "error: not authenticated" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("on an authenticated connection with disks reported", func(t *testing.T) {
		cl := dial(t, addr)
		cl.exchange(t, "AUTH vm1 secret")
		cl.exchange(t, "ADD_VM vm1 2048 2 disk1:100")

		t.Run("it keeps the known disks when no valid spec is given", func(t *testing.T) {
			if actual := cl.exchange(t, "UPDATE_VM 4096 4 malformed"); actual != "VM vm1 updated" {
				t.Errorf("unmatch reply: %s", actual)
			}

			stored := mock.Calls.Upsert[len(mock.Calls.Upsert)-1]
			expected := domain.Machine{
				VMID: "vm1", RAM: 4096, CPU: 4, Authorized: true,
				Disks: []domain.Disk{
					{DiskID: "disk1", Capacity: 100, VMID: "vm1"},
				},
			}
			if !stored.Equal(&expected) {
				t.Errorf("unexpected machine stored: %+v", stored)
			}
		})

		t.Run("it replaces disks when valid specs are given", func(t *testing.T) {
			if actual := cl.exchange(t, "UPDATE_VM 8192 8 disk3:300"); actual != "VM vm1 updated" {
				t.Errorf("unmatch reply: %s", actual)
			}

			stored := mock.Calls.Upsert[len(mock.Calls.Upsert)-1]
			expected := domain.Machine{
				VMID: "vm1", RAM: 8192, CPU: 8, Authorized: true,
				Disks: []domain.Disk{
					{DiskID: "disk3", Capacity: 300, VMID: "vm1"},
				},
			}
			if !stored.Equal(&expected) {
				t.Errorf("unexpected machine stored: %+v", stored)
			}
		})
	})
}

func TestServer_listings(t *testing.T) {
	lastSeen := time.Date(2026, 8, 10, 12, 30, 0, 0, time.UTC)
	stored := []domain.Machine{
		{
			VMID: "vm1", RAM: 2048, CPU: 2, Authorized: true, LastSeen: lastSeen,
			Disks: []domain.Disk{{DiskID: "disk1", Capacity: 100, VMID: "vm1"}},
		},
		{VMID: "vm2", RAM: 1024, CPU: 1, Authorized: false, LastSeen: lastSeen},
	}

	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	mock.Impl.ListAll = func(context.Context) ([]domain.Machine, error) {
		return stored, nil
	}
	mock.Impl.ListAuthorized = func(context.Context) ([]domain.Machine, error) {
		return stored[:1], nil
	}
	mock.Impl.ListDisks = func(context.Context) ([]domain.Disk, error) {
		return []domain.Disk{
			{DiskID: "disk1", Capacity: 100, VMID: "vm1"},
			{DiskID: "orphan", Capacity: 50},
		}, nil
	}
	addr, _ := startServer(t, mock)

	t.Run("LIST_ALL serializes every machine from the database", func(t *testing.T) {
		cl := dial(t, addr)
		reply := cl.exchange(t, "LIST_ALL")

		actual := []apimachines.Detail{}
		if err := json.Unmarshal([]byte(reply), &actual); err != nil {
			t.Fatalf("reply is not a JSON array: %s / %s", err, reply)
		}
		expected := []apimachines.Detail{
			apimachines.ComposeDetail(stored[0]),
			apimachines.ComposeDetail(stored[1]),
		}
		if !cmp.SliceContentEqWith(
			actual, expected,
			func(a, b apimachines.Detail) bool { return a.Equal(&b) },
		) {
			t.Errorf("unmatch listing: %v, expected: %v", actual, expected)
		}
	})

	t.Run("LIST_AUTHORIZED serializes only authorized machines", func(t *testing.T) {
		cl := dial(t, addr)
		reply := cl.exchange(t, "LIST_AUTHORIZED")

		actual := []apimachines.Detail{}
		if err := json.Unmarshal([]byte(reply), &actual); err != nil {
			t.Fatalf("reply is not a JSON array: %s / %s", err, reply)
		}
		if len(actual) != 1 || actual[0].VMID != "vm1" {
			t.Errorf("unmatch listing: %v", actual)
		}
	})

	t.Run("LIST_DISKS serializes all disks", func(t *testing.T) {
		cl := dial(t, addr)
		reply := cl.exchange(t, "LIST_DISKS")

		actual := []apimachines.DiskDetail{}
		if err := json.Unmarshal([]byte(reply), &actual); err != nil {
			t.Fatalf("reply is not a JSON array: %s / %s", err, reply)
		}
		if len(actual) != 2 {
			t.Errorf("unmatch listing: %v", actual)
		}
	})

	t.Run("LIST_CONNECTED reflects the live registry", func(t *testing.T) {
		cl := dial(t, addr)
		if reply := cl.exchange(t, "LIST_CONNECTED"); reply != "[]" {
			t.Errorf("expected empty listing before AUTH, got: %s", reply)
		}

		cl.exchange(t, "AUTH vm9 secret")
		reply := cl.exchange(t, "LIST_CONNECTED")

		actual := []apimachines.Detail{}
		if err := json.Unmarshal([]byte(reply), &actual); err != nil {
			t.Fatalf("reply is not a JSON array: %s / %s", err, reply)
		}
		if len(actual) != 1 || actual[0].VMID != "vm9" || !actual[0].Authorized {
			t.Errorf("unmatch listing: %v", actual)
		}
	})

	t.Run("a database error does not break the session", func(t *testing.T) {
		failing := mocks.NewMockMachineInterface()
		failing.Impl.ListAll = func(context.Context) ([]domain.Machine, error) {
			return nil, errors.New("db is down")
		}
		faddr, _ := startServer(t, failing)

		cl := dial(t, faddr)
		if reply := cl.exchange(t, "LIST_ALL"); !strings.HasPrefix(reply, "error: ") {
			t.Errorf("expected an error line, got: %s", reply)
		}
		if reply := cl.exchange(t, "LIST_CONNECTED"); reply != "[]" {
			t.Errorf("session should stay usable, got: %s", reply)
		}
	})
}

func TestServer_logout(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	mock.Impl.Deauthorize = func(context.Context, string) error { return nil }
	addr, _ := startServer(t, mock)

	t.Run("it rejects LOGOUT before AUTH", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "LOGOUT"); actual != "error: not authenticated" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("it deauthorizes the machine and keeps the connection open", func(t *testing.T) {
		cl := dial(t, addr)
		cl.exchange(t, "AUTH vm1 secret")

		if actual := cl.exchange(t, "LOGOUT"); actual != "VM vm1 logged out" {
			t.Errorf("unmatch reply: %s", actual)
		}
		if !cmp.SliceEq(mock.Calls.Deauthorize, []string{"vm1"}) {
			t.Errorf("unexpected Deauthorize calls: %v", mock.Calls.Deauthorize)
		}

		t.Run("and the machine is gone from the registry", func(t *testing.T) {
			if reply := cl.exchange(t, "LIST_CONNECTED"); reply != "[]" {
				t.Errorf("unmatch listing: %s", reply)
			}
		})

		t.Run("and the connection can authenticate again", func(t *testing.T) {
			if actual := cl.exchange(t, "AUTH vm1 secret"); actual != "authenticated as VM vm1" {
				t.Errorf("unmatch reply: %s", actual)
			}
		})
	})
}

func TestServer_misc(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }
	addr, stop := startServer(t, mock)

	t.Run("it replies to an unknown command", func(t *testing.T) {
		cl := dial(t, addr)
		if actual := cl.exchange(t, "FROBNICATE"); actual != "unknown command" {
			t.Errorf("unmatch reply: %s", actual)
		}
	})

	t.Run("it ignores empty lines", func(t *testing.T) {
		cl := dial(t, addr)
		if _, err := fmt.Fprint(cl.conn, "\n\n"); err != nil {
			t.Fatal(err)
		}
		if reply := cl.exchange(t, "LIST_CONNECTED"); reply != "[]" {
			t.Errorf("unmatch reply: %s", reply)
		}
	})

	t.Run("on shutdown, authenticated machines are notified", func(t *testing.T) {
		cl := dial(t, addr)
		cl.exchange(t, "AUTH vm1 secret")

		stop()

		reply, err := cl.r.ReadString('\n')
		if err != nil {
			t.Fatalf("no shutdown notice: %s", err)
		}
		if strings.TrimSuffix(reply, "\n") != "server is shutting down" {
			t.Errorf("unmatch notice: %s", reply)
		}
		if _, err := cl.r.ReadString('\n'); !errors.Is(err, io.EOF) {
			t.Errorf("connection should be closed, got: %v", err)
		}
	})
}

func TestServer_shutdown(t *testing.T) {
	mock := mocks.NewMockMachineInterface()
	mock.Impl.Upsert = func(context.Context, domain.Machine) error { return nil }

	ctx, cancel := kctx.WithTest(context.Background(), t)
	ctx, stop := context.WithCancel(ctx)
	t.Cleanup(cancel)
	t.Cleanup(stop)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("can not listen: %s", err)
	}

	srv := server.New("secret", mock, log.New(io.Discard, "", log.LstdFlags))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	t.Run("it closes every live connection, authenticated or not, and returns", func(t *testing.T) {
		authed := dial(t, lis.Addr().String())
		authed.exchange(t, "AUTH vm1 secret")

		idle := dial(t, lis.Addr().String())
		// a round-trip before AUTH proves the session is running
		if reply := idle.exchange(t, "LIST_CONNECTED"); !strings.HasPrefix(reply, "[") {
			t.Fatalf("unexpected reply: %s", reply)
		}

		stop()

		for name, cl := range map[string]*testClient{
			"authenticated":   authed,
			"unauthenticated": idle,
		} {
			notice, err := cl.r.ReadString('\n')
			if err != nil {
				t.Fatalf("no shutdown notice on the %s connection: %s", name, err)
			}
			if strings.TrimSuffix(notice, "\n") != "server is shutting down" {
				t.Errorf("unmatch notice on the %s connection: %s", name, notice)
			}
			if _, err := cl.r.ReadString('\n'); !errors.Is(err, io.EOF) {
				t.Errorf("the %s connection should be closed, got: %v", name, err)
			}
		}

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned an error: %s", err)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
	})
}
