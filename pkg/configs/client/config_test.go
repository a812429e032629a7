package client_test

import (
	"testing"

	kcc "github.com/vmfleet/vmfleet/pkg/configs/client"
)

func TestLoadClientConfig(t *testing.T) {
	t.Run("environment variables overlay the defaults", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "fleetd.example")
		t.Setenv("AUTH_PASSWORD", "hush")

		conf := kcc.LoadClientConfig()

		if conf.ServerHost != "fleetd.example" {
			t.Errorf("unmatch server host: %s", conf.ServerHost)
		}
		if conf.ServerPort != "8888" {
			t.Errorf("unmatch server port: %s", conf.ServerPort)
		}
		if conf.AuthPassword != "hush" {
			t.Errorf("unmatch auth password: %s", conf.AuthPassword)
		}
	})
}
