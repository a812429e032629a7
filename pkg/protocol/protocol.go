// Package protocol defines the line protocol spoken between fleetd and
// its clients.
//
// A request is a single line: a command word followed by
// whitespace-separated arguments. Responses are single lines; listings
// are one-line JSON arrays.
package protocol

import (
	"strconv"
	"strings"

	"github.com/vmfleet/vmfleet/pkg/domain"
)

type Command string

const (
	Auth           Command = "AUTH"
	AddVM          Command = "ADD_VM"
	UpdateVM       Command = "UPDATE_VM"
	ListConnected  Command = "LIST_CONNECTED"
	ListAuthorized Command = "LIST_AUTHORIZED"
	ListAll        Command = "LIST_ALL"
	ListDisks      Command = "LIST_DISKS"
	Logout         Command = "LOGOUT"
	Exit           Command = "EXIT"
)

var commands = map[Command]struct{}{
	Auth: {}, AddVM: {}, UpdateVM: {},
	ListConnected: {}, ListAuthorized: {}, ListAll: {}, ListDisks: {},
	Logout: {}, Exit: {},
}

// ParseCommand normalizes word to upper case and reports whether it is
// a known command.
func ParseCommand(word string) (Command, bool) {
	c := Command(strings.ToUpper(word))
	_, ok := commands[c]
	return c, ok
}

// ParseLine splits a request line into its command and arguments.
//
// It returns ok = false when the line is blank or the command word is
// not known.
func ParseLine(line string) (Command, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	cmd, ok := ParseCommand(fields[0])
	return cmd, fields[1:], ok
}

// ParseDiskSpecs converts "<disk_id>:<capacity>" specs into disks owned
// by vmID. Malformed specs, ones with no ":" or a non-numeric capacity,
// are skipped.
func ParseDiskSpecs(specs []string, vmID string) []domain.Disk {
	disks := []domain.Disk{}
	for _, spec := range specs {
		diskID, capStr, found := strings.Cut(spec, ":")
		if !found {
			continue
		}
		capacity, err := strconv.Atoi(capStr)
		if err != nil {
			continue
		}
		disks = append(disks, domain.Disk{
			DiskID: diskID, Capacity: capacity, VMID: vmID,
		})
	}
	return disks
}
