// Command stockalloc runs the stock allocation engine over a CSV or XLSX
// file and writes the detailed and summary tables.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
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
	return exitOK
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:  "stockalloc",
		Usage: "Allocate per-product stock to buyers by descending offer price",
		Description: "Exit codes:\n" +
			"   0 - Success\n" +
			"   2 - Invalid input or runtime error",
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			allocateCmd,
			columnsCmd,
		},
	}
}

var inputFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Required: true,
		Usage:    "input table (.csv or .xlsx)",
	},
	&cli.IntFlag{
		Name:  "header-row",
		Value: 1,
		Usage: "1-based row holding the column names",
	},
	&cli.StringFlag{
		Name:  "sheet",
		Usage: "workbook sheet to read (default: first sheet)",
	},
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML config file (default: allocation.yaml or ALLOC_* environment)",
	},
	&cli.BoolFlag{
		Name:  "debug",
		Usage: "log column resolution details",
	},
}

var allocateCmd = &cli.Command{
	Name:  "allocate",
	Usage: "Run the allocation and write the result tables",
	Flags: append(append([]cli.Flag{}, inputFlags...),
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Required: true,
			Usage:    "output file: .xlsx gets both tables, .csv gets the detailed table",
		},
		&cli.StringFlag{
			Name:  "summary-csv",
			Usage: "also write the buyer summary as CSV",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "goroutines used for the row pass (default from config)",
		},
		&cli.StringFlag{
			Name:  "tie-break",
			Usage: "order of equally priced bids: discovery or alphabetical",
		},
		&cli.StringFlag{
			Name:  "status-policy",
			Usage: "row status filter: sellable or off",
		},
	),
	Action: allocateAction,
}

var columnsCmd = &cli.Command{
	Name:  "columns",
	Usage: "Show how the header row is interpreted",
	Flags: append(append([]cli.Flag{}, inputFlags...),
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "output format: text or json",
		},
	),
	Action: columnsAction,
}
