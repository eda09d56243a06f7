// Package cli provides the command-line interface for validating
// diagnostic data snapshots and certificates.
package cli

import (
	"fmt"
	"io"
	"os"
)

// Version information
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

// Exit codes.
const (
	ExitPassed = 0
	// ExitNotPassed means the validation ran and the overall result is not
	// PASSED.
	ExitNotPassed = 1
	ExitUsage     = 2
	ExitError     = 3
)

// Run executes the CLI with the given arguments and exits with the
// command's exit code.
// This is the main entry point for the CLI.
func Run(args []string) {
	if code := Execute(args, os.Stdout, os.Stderr); code != ExitPassed {
		osExit(code)
	}
}

// Execute runs the command named by args[1] and returns its exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		Usage(stdout)
		return ExitUsage
	}

	command := args[1]

	switch command {
	case "validate":
		return ValidateCommand(args[2:], stdout, stderr)
	case "certificate":
		return CertificateCommand(args[2:], stdout, stderr)
	case "policy":
		return PolicyCommand(args[2:], stdout, stderr)
	case "version":
		VersionCommand(stdout)
		return ExitPassed
	case "help", "-h", "--help":
		Usage(stdout)
		return ExitPassed
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		Usage(stderr)
		return ExitUsage
	}
}

// Usage prints the CLI usage information.
func Usage(w io.Writer) {
	fmt.Fprintf(w, "goades - AdES validation tool\n\n")
	fmt.Fprintf(w, "Usage: goades <command> [options] <args>\n\n")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  validate     Validate the signatures, timestamps and evidence records of a diagnostic data file")
	fmt.Fprintln(w, "  certificate  Validate one certificate of a diagnostic data file or a PEM/DER chain")
	fmt.Fprintln(w, "  policy       Print the built-in validation policy or check a policy file")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show this help message")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Use 'goades <command> -h' for command-specific help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  goades validate diagnostic.json")
	fmt.Fprintln(w, "  goades validate -level LONG_TERM_DATA -format json -detailed diagnostic.json")
	fmt.Fprintln(w, "  goades certificate diagnostic.json C-1A2B")
	fmt.Fprintln(w, "  goades certificate -chain chain.pem -trust roots.pem")
	fmt.Fprintln(w, "  goades policy -check policy.yaml")
}

// VersionCommand prints version information.
func VersionCommand(w io.Writer) {
	fmt.Fprintf(w, "goades version %s\n", Version)
	fmt.Fprintf(w, "Build time: %s\n", BuildTime)
}
