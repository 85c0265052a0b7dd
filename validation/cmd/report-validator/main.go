package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/openallocation/allocapi"
	"github.com/cloudx-io/openallocation/validation"
)

// Exit codes
const (
	exitValid   = 0
	exitInvalid = 1
	exitError   = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout)
	if err := app.Run(args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(stderr, "Error:", msg)
			}
			return exitErr.ExitCode()
		}
		fmt.Fprintln(stderr, "Error:", err)
		return exitError
	}
	return exitValid
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:  "report-validator",
		Usage: "Verify signed allocation reports and published signing keys",
		Description: "Exit codes:\n" +
			"   0 - Validation passed\n" +
			"   1 - Validation failed\n" +
			"   2 - Invalid input or runtime error",
		Writer:         stdout,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			reportCmd,
			keyCmd,
		},
	}
}

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Value: "text",
	Usage: "output format: text or json",
}

var reportCmd = &cli.Command{
	Name:  "report",
	Usage: "Validate the signed report attached to an allocation response",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "response",
			Required: true,
			Usage:    "allocation response JSON (file path or inline JSON)",
		},
		&cli.StringFlag{
			Name:     "key",
			Required: true,
			Usage:    "key response JSON or PEM public key (file path or inline)",
		},
		&cli.StringFlag{
			Name:  "report-gzip",
			Usage: "gzip url-safe report; overrides report_cose_base64 in the response",
		},
		formatFlag,
	},
	Action: func(ctx *cli.Context) error {
		var resp allocapi.AllocationResponse
		if err := readJSON(ctx.String("response"), &resp); err != nil {
			return cli.Exit(fmt.Sprintf("reading allocation response: %v", err), exitError)
		}

		publicKeyPEM, err := readPublicKey(ctx.String("key"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("reading public key: %v", err), exitError)
		}

		report, err := readReport(&resp, allocapi.ReportCOSEGzip(ctx.String("report-gzip")))
		if err != nil {
			return cli.Exit(fmt.Sprintf("reading report: %v", err), exitError)
		}

		result, err := validation.ValidateReport(&validation.ReportValidationInput{
			Report:       report,
			PublicKeyPEM: publicKeyPEM,
			Response:     &resp,
		})
		if err != nil {
			return cli.Exit(fmt.Sprintf("validation error: %v", err), exitError)
		}

		checks := []checkResult{
			{"Signature Valid", "signature_valid", result.SignatureValid},
			{"Payload Valid", "payload_valid", result.PayloadValid},
			{"Run ID Valid", "run_id_valid", result.RunIDValid},
			{"Row Count Valid", "row_count_valid", result.RowCountValid},
			{"Outcome Hashes Valid", "outcome_hashes_valid", result.OutcomeHashesValid},
			{"Ledger Hash Valid", "ledger_hash_valid", result.LedgerHashValid},
			{"Summary Valid", "summary_valid", result.SummaryValid},
			{"Totals Valid", "totals_valid", result.TotalsValid},
		}
		return emit(ctx, "Allocation Report Validator", result.IsValid(), checks, result.ValidationDetails)
	},
}

var keyCmd = &cli.Command{
	Name:  "key",
	Usage: "Validate a key response from the allocation service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "key-response",
			Required: true,
			Usage:    "key response JSON (file path or inline JSON)",
		},
		formatFlag,
	},
	Action: func(ctx *cli.Context) error {
		var resp allocapi.KeyResponse
		if err := readJSON(ctx.String("key-response"), &resp); err != nil {
			return cli.Exit(fmt.Sprintf("reading key response: %v", err), exitError)
		}

		result, err := validation.ValidateKeyResponse(&resp)
		if err != nil {
			return cli.Exit(fmt.Sprintf("validation error: %v", err), exitError)
		}

		checks := []checkResult{
			{"Key Format Valid", "key_format_valid", result.KeyFormatValid},
			{"Algorithm Valid", "algorithm_valid", result.AlgorithmValid},
			{"Key ID Match", "key_id_match", result.KeyIDMatch},
		}
		return emit(ctx, "Signing Key Validator", result.IsValid(), checks, result.ValidationDetails)
	},
}
