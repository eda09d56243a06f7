// Command goades validates AdES signatures, timestamps and evidence records
// described by a diagnostic data file.
//
// Usage:
//
//	goades <command> [options] <args>
//
// Commands:
//
//	validate     Validate every item of a diagnostic data file
//	certificate  Validate one certificate of a diagnostic data file or a PEM/DER chain
//	policy       Print the built-in policy or check a policy file
//	version      Show version information
//	help         Show help message
//
// Examples:
//
//	# Validate up to the level set by the policy
//	goades validate diagnostic.json
//
//	# Validate with JSON output including the detailed report
//	goades validate -format json -detailed diagnostic.json
//
//	# Check a policy file
//	goades policy -check policy.yaml
package main

import (
	"os"

	"github.com/georgepadayatti/goades/cli"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/goades
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Set version info
	cli.Version = version
	cli.BuildTime = buildTime

	// Run the CLI
	cli.Run(os.Args)
}
