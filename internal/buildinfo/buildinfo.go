// Package buildinfo resolves the build version and environment of the
// running process. The environment is selected once at startup and never
// changes afterwards.
package buildinfo

import (
	"os"
	"strings"
)

// Environment distinguishes the three mutually exclusive backends a build
// can run against.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvSandbox    Environment = "sandbox"
	EnvSimulator  Environment = "simulator"
)

// Build is the build identifier, set at build time with -ldflags.
var Build = "dev"

// Version carries the build identifier and environment of this process.
type Version struct {
	Build string
	Env   Environment
}

// Resolve returns the process version, reading TIPTOP_ENV for the
// environment. Unknown values fall back to production.
func Resolve() Version {
	return Version{Build: Build, Env: parseEnv(os.Getenv("TIPTOP_ENV"))}
}

func parseEnv(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sandbox":
		return EnvSandbox
	case "simulator", "dev":
		return EnvSimulator
	default:
		return EnvProduction
	}
}

func (v Version) String() string {
	return string(v.Env) + " " + v.Build
}
