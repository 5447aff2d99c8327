package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/report"
)

// formatText is the default, human-readable output.
const formatText = "text"

var (
	headingColor = color.New(color.Bold)
	labelColor   = color.New(color.FgCyan)
	passColor    = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	mutedColor   = color.New(color.FgHiBlack)
)

// writeOutput renders v as JSON or YAML when format asks for it and
// calls text otherwise.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer)) error {
	if format == "" || format == formatText {
		text(w)
		return nil
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return errors.NewUserError(err, "use --format text, json or yaml")
	}
	return report.Encode(w, f, v)
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w, headingColor.Sprint(title))
}

// field prints one aligned "label: value" line.
func field(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %s %v\n", labelColor.Sprintf("%-20s", label+":"), value)
}

func yesNo(b bool) string {
	if b {
		return passColor.Sprint("yes")
	}
	return mutedColor.Sprint("no")
}

// orNone substitutes a muted placeholder for empty values.
func orNone(s string) string {
	if s == "" {
		return mutedColor.Sprint("none")
	}
	return s
}
