package hakim

import (
	_ "embed"
	"strings"
)

//go:embed version.txt
var version string

// Version returns the version of hakim.
func Version() string {
	return strings.TrimSpace(version)
}
