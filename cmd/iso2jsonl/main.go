package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bgrewell/usage"

	"github.com/scieloorg/ioisis"
	"github.com/scieloorg/ioisis/internal/cli"
	"github.com/scieloorg/ioisis/pkg/charset"
	"github.com/scieloorg/ioisis/pkg/jsonl"
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
		usage.WithApplicationName("iso2jsonl"),
		usage.WithApplicationDescription("iso2jsonl converts ISO 2709 interchange files to line-delimited JSON, one record per line, with optional subfield splitting."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	debug := u.AddBooleanOption("v", "verbose", false, "Enable verbose (debug) logging", "", nil)
	trace := u.AddBooleanOption("V", "trace", false, "Enable trace logging", "", nil)
	jenc := u.AddStringOption("j", "jenc", "utf-8", "Character set of the JSONL output", "", nil)
	ienc := u.AddStringOption("i", "ienc", "cp1252", "Character set of the ISO input", "", nil)
	mode := u.AddStringOption("m", "mode", "field", "Value shape: field, pairs or nest", "", nil)
	noNumber := u.AddBooleanOption("n", "no-number", false, "Suppress the '#' occurrence key", "", nil)
	lineLen := u.AddStringOption("l", "line-len", "80", "Line wrap width of the input, 0 if unwrapped", "", nil)
	output := u.AddStringOption("o", "output", "-", "Output path, '-' for stdout", "", nil)
	input := u.AddArgument(1, "iso-path", "Path to the ISO file, '-' for stdin", "")
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
		u.PrintError(fmt.Errorf("the iso input path must be provided"))
		os.Exit(cli.ExitUsage)
	}
	m, ok := subfield.ParseMode(*mode)
	if !ok {
		u.PrintError(fmt.Errorf("invalid mode %q", *mode))
		os.Exit(cli.ExitUsage)
	}
	wrap, err := strconv.Atoi(*lineLen)
	if err != nil {
		u.PrintError(fmt.Errorf("invalid line length %q", *lineLen))
		os.Exit(cli.ExitUsage)
	}

	if err := run(*input, *output, *jenc, *ienc, m, !*noNumber, wrap, *debug, *trace); err != nil {
		fmt.Fprintf(os.Stderr, "iso2jsonl: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func run(input, output, jenc, ienc string, mode subfield.Mode, withNumber bool, lineLen int, debug, trace bool) error {
	log := cli.NewLogger(debug, trace)

	in, err := cli.OpenInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := cli.OpenOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	jcs, err := charset.Lookup(jenc)
	if err != nil {
		return err
	}

	reader, err := ioisis.NewISOReader(in,
		options.WithIsoEncoding(ienc),
		options.WithMode(mode),
		options.WithNumber(withNumber),
		options.WithLineLen(lineLen),
		options.WithLogger(log),
	)
	if err != nil {
		return err
	}

	writer := jsonl.NewWriter(out, jcs)
	for {
		view, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := writer.Write(view); err != nil {
			return err
		}
	}
	return writer.Flush()
}
