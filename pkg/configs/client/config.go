package client

import "os"

// Config is the fleet CLI's connection settings. Values come from the
// environment; command line flags override them.
type Config struct {
	ServerHost   string
	ServerPort   string
	AuthPassword string
}

func Default() Config {
	return Config{
		ServerHost:   "localhost",
		ServerPort:   "8888",
		AuthPassword: "secret",
	}
}

func LoadClientConfig() Config {
	conf := Default()
	for env, dest := range map[string]*string{
		"SERVER_HOST":   &conf.ServerHost,
		"SERVER_PORT":   &conf.ServerPort,
		"AUTH_PASSWORD": &conf.AuthPassword,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*dest = v
		}
	}
	return conf
}
