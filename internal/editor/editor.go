// Package editor launches the user's text editor on a file.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// Streams are the terminal the editor runs attached to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams attaches the editor to the process's own terminal.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Open runs the editor on path and waits for it to exit. $EDITOR may carry
// arguments, as in "code --wait".
func Open(ctx context.Context, path string, s Streams) error {
	argv := Command(os.Getenv, exec.LookPath)
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = s.In, s.Out, s.Err

	if err := cmd.Run(); err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "running editor %s", argv[0]),
			"set $EDITOR to an installed editor",
		)
	}
	return nil
}

// Command resolves the editor command line: $EDITOR, then $VISUAL, then
// nano when installed, then vi.
func Command(getenv func(string) string, lookPath func(string) (string, error)) []string {
	for _, name := range []string{"EDITOR", "VISUAL"} {
		if fields := strings.Fields(getenv(name)); len(fields) > 0 {
			return fields
		}
	}
	if _, err := lookPath("nano"); err == nil {
		return []string{"nano"}
	}
	return []string{"vi"}
}
