package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

type checkResult struct {
	label string
	key   string
	ok    bool
}

// emit prints the result and maps it to an exit code.
func emit(ctx *cli.Context, title string, valid bool, checks []checkResult, details []string) error {
	w := ctx.App.Writer

	var err error
	if ctx.String("format") == "json" {
		err = outputJSON(w, valid, checks, details)
	} else {
		outputText(w, title, valid, checks, details)
	}
	if err != nil {
		return cli.Exit(err.Error(), exitError)
	}

	if !valid {
		return cli.Exit("", exitInvalid)
	}
	return nil
}

func outputText(w io.Writer, title string, valid bool, checks []checkResult, details []string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "==================================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Summary:")
	for _, c := range checks {
		fmt.Fprintf(w, "  %-22s %v\n", c.label+":", c.ok)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Details:")
	for _, detail := range details {
		fmt.Fprintf(w, "  - %s\n", detail)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "==================================")
	if valid {
		fmt.Fprintln(w, "VALIDATION: ✓ PASSED")
		fmt.Fprintln(w, "Exit Code: 0")
	} else {
		fmt.Fprintln(w, "VALIDATION: ✗ FAILED")
		fmt.Fprintln(w, "Exit Code: 1")
	}
}

func outputJSON(w io.Writer, valid bool, checks []checkResult, details []string) error {
	output := map[string]any{
		"valid":   valid,
		"details": details,
	}
	for _, c := range checks {
		output[c.key] = c.ok
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
