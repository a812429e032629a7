package server

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBHost       string `yaml:"db_host"`
	DBPort       string `yaml:"db_port"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"db_password"`
	DBName       string `yaml:"db_name"`
	ServerHost   string `yaml:"server_host"`
	ServerPort   string `yaml:"server_port"`
	AuthPassword string `yaml:"auth_password"`

	// AdminPort, when not empty, enables the read-only HTTP status API.
	AdminPort string `yaml:"admin_port"`
}

func Default() Config {
	return Config{
		DBHost:       "localhost",
		DBPort:       "5432",
		DBUser:       "postgres",
		DBPassword:   "postgres",
		DBName:       "vmdb",
		ServerHost:   "0.0.0.0",
		ServerPort:   "8888",
		AuthPassword: "secret",
	}
}

// LoadServerConfig builds the effective configuration.
//
// Defaults are overlaid by the yaml file at filepath (skipped when
// filepath is empty) and then by environment variables, so the
// orchestration descriptor can configure the daemon purely via env.
func LoadServerConfig(filepath string) (*Config, error) {
	conf := Default()

	if filepath != "" {
		content, err := os.ReadFile(filepath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(content, &conf); err != nil {
			return nil, err
		}
	}

	conf.overlayEnv()
	return &conf, nil
}

func (c *Config) overlayEnv() {
	for env, dest := range map[string]*string{
		"DB_HOST":       &c.DBHost,
		"DB_PORT":       &c.DBPort,
		"DB_USER":       &c.DBUser,
		"DB_PASSWORD":   &c.DBPassword,
		"DB_NAME":       &c.DBName,
		"SERVER_HOST":   &c.ServerHost,
		"SERVER_PORT":   &c.ServerPort,
		"AUTH_PASSWORD": &c.AuthPassword,
		"ADMIN_PORT":    &c.AdminPort,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*dest = v
		}
	}
}

// DBURL builds the postgres connection URL.
func (c *Config) DBURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%s", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// ListenAddress is the host:port the TCP endpoint binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}
