package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/georgepadayatti/goades/policy"
)

// PolicyCommand implements the 'policy' command. Without -check it prints
// the built-in policy.
func PolicyCommand(args []string, stdout, stderr io.Writer) int {
	policyFlags := flag.NewFlagSet("policy", flag.ContinueOnError)
	policyFlags.SetOutput(stderr)

	var check string
	var noColor bool
	policyFlags.StringVar(&check, "check", "", "Policy file to check")
	policyFlags.BoolVar(&noColor, "no-color", false, "Disable coloured output")

	policyFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: goades policy [-check policy.yaml]\n\n")
		fmt.Fprintln(stderr, "Print the built-in validation policy, or check a policy file.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		policyFlags.PrintDefaults()
	}

	if err := policyFlags.Parse(args); err != nil {
		return ExitUsage
	}
	setColor(noColor)

	if check == "" {
		if _, err := stdout.Write(policy.DefaultYAML()); err != nil {
			return ExitError
		}
		return ExitPassed
	}

	p, err := policy.Load(check)
	if err != nil {
		fmt.Fprintf(stdout, "%s %s\n", failedColor.Sprint("[FAIL]"), check)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitNotPassed
	}
	fmt.Fprintf(stdout, "%s %s\n", passedColor.Sprint("[OK]"), check)
	fmt.Fprintf(stdout, "  Name: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(stdout, "  Description: %s\n", p.Description)
	}
	fmt.Fprintf(stdout, "  Model: %s\n", p.ChainModel())
	fmt.Fprintf(stdout, "  Validation Level: %s\n", p.ValidationLevel.Or(policy.ArchivalData))
	return ExitPassed
}
