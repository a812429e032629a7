package buildtime

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

func init() {
	version = strings.TrimSpace(version)
}

// version string when this vmfleet has been built.
func VERSION() string {
	return version
}

func VersionString() string {
	return "vmfleet " + version
}
