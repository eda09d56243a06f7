package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/georgepadayatti/goades/config"
	"github.com/georgepadayatti/goades/diagnostic"
	"github.com/georgepadayatti/goades/report"
)

// ValidateOutput is the JSON output of the validate command.
type ValidateOutput struct {
	Input    *Input           `json:"input"`
	Simple   *report.Simple   `json:"simpleReport"`
	Detailed *report.Detailed `json:"detailedReport,omitempty"`
}

// CertificateOutput is the JSON output of the certificate command.
type CertificateOutput struct {
	Input  *Input                    `json:"input"`
	Report *report.SimpleCertificate `json:"report"`
}

// ValidateCommand implements the 'validate' command.
func ValidateCommand(args []string, stdout, stderr io.Writer) int {
	validateFlags := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateFlags.SetOutput(stderr)

	var opts Options
	opts.register(validateFlags)

	validateFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: goades validate [options] <diagnostic.json>\n\n")
		fmt.Fprintln(stderr, "Validate every signature, timestamp and evidence record of a diagnostic data file.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		validateFlags.PrintDefaults()
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Examples:")
		fmt.Fprintln(stderr, "  goades validate diagnostic.json")
		fmt.Fprintln(stderr, "  goades validate -level TIMESTAMPS -time 2025-01-01T00:00:00Z diagnostic.json")
		fmt.Fprintln(stderr, "  goades validate -format json -detailed diagnostic.json")
	}

	if err := validateFlags.Parse(args); err != nil {
		return ExitUsage
	}
	if validateFlags.NArg() < 1 {
		validateFlags.Usage()
		return ExitUsage
	}

	s, err := opts.session()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	data, input, err := s.loadInput(validateFlags.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports, err := s.executor.Evaluate(ctx, data, s.policy, s.at, s.level)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	s.logger.WithFields(logrus.Fields{
		"report":     reports.Simple.ID,
		"items":      reports.Simple.ItemCount(),
		"indication": reports.Simple.Conclusion.Indication,
	}).Info("Validation completed")

	if s.cfg.Report.Format == config.FormatJSON {
		out := &ValidateOutput{Input: input, Simple: reports.Simple}
		if s.cfg.Report.Detailed {
			out.Detailed = reports.Detailed
		}
		if err := writeJSON(stdout, out); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitError
		}
	} else {
		writeInput(stdout, input)
		format := report.DefaultTextFormat()
		format.IncludeInfos = opts.Verbose
		fmt.Fprint(stdout, reports.Simple.ToText(format))
		writeSummary(stdout, reports.Simple)
	}

	if err := s.writeMetrics(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	if !reports.Simple.Conclusion.IsPassed() {
		return ExitNotPassed
	}
	return ExitPassed
}

// CertificateCommand implements the 'certificate' command.
func CertificateCommand(args []string, stdout, stderr io.Writer) int {
	certFlags := flag.NewFlagSet("certificate", flag.ContinueOnError)
	certFlags.SetOutput(stderr)

	var opts Options
	opts.register(certFlags)
	var chainFile, trustFile, revocationFiles string
	certFlags.StringVar(&chainFile, "chain", "", "PEM or DER certificate chain, leaf first, validated instead of a diagnostic data file")
	certFlags.StringVar(&trustFile, "trust", "", "PEM or DER trust anchors for -chain")
	certFlags.StringVar(&revocationFiles, "revocation", "", "comma separated CRL or OCSP response files for -chain")

	certFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: goades certificate [options] <diagnostic.json> <certificate-id>\n")
		fmt.Fprintf(stderr, "       goades certificate [options] -chain <chain.pem> [-trust <roots.pem>] [-revocation <crl,ocsp>]\n\n")
		fmt.Fprintln(stderr, "Validate the chain and qualification of one certificate.")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Options:")
		certFlags.PrintDefaults()
	}

	if err := certFlags.Parse(args); err != nil {
		return ExitUsage
	}
	if chainFile == "" && certFlags.NArg() < 2 {
		certFlags.Usage()
		return ExitUsage
	}

	s, err := opts.session()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	var (
		data   *diagnostic.Data
		input  *Input
		target string
	)
	if chainFile != "" {
		data, input, target, err = s.loadChain(chainFile, trustFile, splitList(revocationFiles))
	} else {
		data, input, err = s.loadInput(certFlags.Arg(0))
		target = certFlags.Arg(1)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	rep, err := s.executor.EvaluateCertificate(context.Background(), data, s.policy, target, s.at)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}

	if s.cfg.Report.Format == config.FormatJSON {
		if err := writeJSON(stdout, &CertificateOutput{Input: input, Report: rep}); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitError
		}
	} else {
		writeInput(stdout, input)
		fmt.Fprint(stdout, rep.ToText())
		fmt.Fprintf(stdout, "\n%s\n", indicationLine(rep.Conclusion))
	}

	if err := s.writeMetrics(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	if !rep.Conclusion.IsPassed() {
		return ExitNotPassed
	}
	return ExitPassed
}

// writeJSON outputs v in JSON format.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
