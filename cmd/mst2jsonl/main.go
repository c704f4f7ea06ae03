package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bgrewell/usage"
	"github.com/theckman/yacspin"
	"golang.org/x/term"

	"github.com/scieloorg/ioisis"
	"github.com/scieloorg/ioisis/internal/cli"
	"github.com/scieloorg/ioisis/pkg/charset"
	"github.com/scieloorg/ioisis/pkg/jsonl"
	"github.com/scieloorg/ioisis/pkg/mst"
	"github.com/scieloorg/ioisis/pkg/options"
	"github.com/scieloorg/ioisis/pkg/subfield"
	"github.com/scieloorg/ioisis/pkg/version"
)

func main() {

	u := usage.NewUsage(
		usage.WithApplicationVersion(version.Version()),
		usage.WithApplicationBranch(version.Branch()),
		usage.WithApplicationBuildDate(version.Date()),
		usage.WithApplicationCommitHash(version.Revision()),
		usage.WithApplicationName("mst2jsonl"),
		usage.WithApplicationDescription("mst2jsonl walks a CDS/ISIS master file (.mst with its .xrf index) and emits one JSON record per line, including the mfn and active status."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	debug := u.AddBooleanOption("v", "verbose", false, "Enable verbose (debug) logging", "", nil)
	trace := u.AddBooleanOption("V", "trace", false, "Enable trace logging", "", nil)
	jenc := u.AddStringOption("j", "jenc", "utf-8", "Character set of the JSONL output", "", nil)
	ienc := u.AddStringOption("i", "ienc", "cp1252", "Character set of the master file", "", nil)
	mode := u.AddStringOption("m", "mode", "field", "Value shape: field, pairs or nest", "", nil)
	noNumber := u.AddBooleanOption("n", "no-number", false, "Suppress the '#' occurrence key", "", nil)
	onlyActive := u.AddBooleanOption("a", "only-active", false, "Skip logically deleted records", "", nil)
	ffi := u.AddBooleanOption("F", "ffi", false, "Read the wide (FFI) record layout", "", nil)
	output := u.AddStringOption("o", "output", "-", "Output path, '-' for stdout", "", nil)
	input := u.AddArgument(1, "mst-path", "Path to the .mst file", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(cli.ExitUsage)
	}
	if *help {
		u.PrintUsage()
		os.Exit(cli.ExitOK)
	}
	if input == nil || *input == "" {
		u.PrintError(fmt.Errorf("the master file path must be provided"))
		os.Exit(cli.ExitUsage)
	}
	m, ok := subfield.ParseMode(*mode)
	if !ok {
		u.PrintError(fmt.Errorf("invalid mode %q", *mode))
		os.Exit(cli.ExitUsage)
	}
	format := mst.FormatISIS
	if *ffi {
		format = mst.FormatFFI
	}

	quiet := !*debug && !*trace
	err := run(*input, *output, *jenc, *ienc, m, !*noNumber, *onlyActive, format, *debug, *trace, quiet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mst2jsonl: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func run(input, output, jenc, ienc string, mode subfield.Mode, withNumber, onlyActive bool,
	format mst.Format, debug, trace, quiet bool) error {
	log := cli.NewLogger(debug, trace)

	out, err := cli.OpenOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	jcs, err := charset.Lookup(jenc)
	if err != nil {
		return err
	}

	reader, err := ioisis.OpenMaster(input,
		options.WithIsoEncoding(ienc),
		options.WithMode(mode),
		options.WithNumber(withNumber),
		options.WithOnlyActive(onlyActive),
		options.WithMstFormat(format),
		options.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer reader.Close()

	spinner := newSpinner(quiet)
	if spinner != nil {
		if err := spinner.Start(); err != nil {
			spinner = nil
		}
	}

	writer := jsonl.NewWriter(out, jcs)
	count := 0
	for {
		view, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if spinner != nil {
				spinner.StopFail()
			}
			return err
		}
		if err := writer.Write(view); err != nil {
			if spinner != nil {
				spinner.StopFail()
			}
			return err
		}
		count++
		if spinner != nil && count%100 == 0 {
			spinner.Message(fmt.Sprintf("%d records", count))
		}
	}
	if spinner != nil {
		spinner.Message(fmt.Sprintf("%d records", count))
		spinner.Stop()
	}
	return writer.Flush()
}

// newSpinner builds the progress spinner when stderr is an interactive
// terminal and logging is quiet; otherwise it returns nil.
func newSpinner(quiet bool) *yacspin.Spinner {
	if !quiet || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	spinner, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[14],
		Suffix:            " converting",
		SuffixAutoColon:   true,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
		Writer:            os.Stderr,
	})
	if err != nil {
		return nil
	}
	return spinner
}
