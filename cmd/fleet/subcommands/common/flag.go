package common

import (
	kcc "github.com/vmfleet/vmfleet/pkg/configs/client"
)

type CommonFlags struct {
	ServerHost string `flag:"server-host" help:"host of the fleetd server"`
	ServerPort string `flag:"server-port" help:"port of the fleetd server"`
	Password   string `flag:"password" help:"shared password for AUTH"`
}

// DefaultCommonFlags seeds the common flags from the environment
// (SERVER_HOST, SERVER_PORT, AUTH_PASSWORD), so that flags only need
// to be passed when overriding it.
func DefaultCommonFlags() CommonFlags {
	conf := kcc.LoadClientConfig()
	return CommonFlags{
		ServerHost: conf.ServerHost,
		ServerPort: conf.ServerPort,
		Password:   conf.AuthPassword,
	}
}
