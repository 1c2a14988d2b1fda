package main

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/tinyfs/internal/shared/fserr"
)

// Exit codes
const (
	exitOK         = 0
	exitError      = 1 // usage, configuration, missing path, negative answers
	exitSecurity   = 2
	exitCancelled  = 3
	exitFailure    = 4
	exitUnexpected = 5
)

// resultError ends a command with a non-zero code after its output has
// already been printed, e.g. `exists` on a missing path
type resultError struct {
	code int
}

func (e *resultError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) int {
	var re *resultError
	if errors.As(err, &re) {
		return re.code
	}
	switch fserr.KindOf(err) {
	case fserr.KindSecurityViolation:
		return exitSecurity
	case fserr.KindDenied:
		return exitCancelled
	case fserr.KindNotFound, fserr.KindUnknown:
		return exitError
	case fserr.KindIOFailure:
		return exitUnexpected
	default:
		return exitFailure
	}
}

// report prints err the way the command line presents failures and returns
// the exit code
func (a *app) report(err error) int {
	code := exitCode(err)
	var re *resultError
	if errors.As(err, &re) {
		return code
	}

	label := "Error"
	switch code {
	case exitSecurity:
		label = "Security Error"
	case exitCancelled:
		label = "Operation Cancelled"
	case exitFailure:
		label = "TinyFS Error"
	case exitUnexpected:
		label = "Unexpected Error"
	}
	_, _ = fmt.Fprintf(a.stderr, "%s: %v\n", label, err)
	return code
}
