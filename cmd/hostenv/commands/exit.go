package commands

import (
	"fmt"
	"io"

	"github.com/thoreinstein/hostenv/internal/doctor"
	"github.com/thoreinstein/hostenv/internal/errors"
)

// HandleError prints err for the user and returns the process exit code.
// Doctor results have already been printed and only set the code.
func HandleError(w io.Writer, err error) int {
	switch {
	case err == nil:
		return errors.ExitSuccess
	case errors.Is(err, errDoctorErrors):
		return doctor.ExitErrors
	case errors.Is(err, errDoctorWarnings):
		return doctor.ExitWarnings
	}

	exitErr := errors.AsExitError(err)
	msg, hint := exitErr.Message()
	// a bare exit code, as from "env --is", prints nothing
	if msg != "" {
		fmt.Fprintf(w, "%s %s\n", errorColor.Sprint("Error:"), msg)
	}
	if hint != "" {
		fmt.Fprintf(w, "  hint: %s\n", hint)
	}
	return exitErr.Code
}
