package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/fpl-squad/internal/catalog"
	"github.com/stitts-dev/fpl-squad/internal/optimizer"
)

const (
	exitOK           = 0
	exitUsage        = 1
	exitDataLoad     = 2
	exitNoSquad      = 3
	exitInconsistent = 4
	exitOther        = 5
)

// usageError is a bad command line. It carries the command whose usage
// should be printed.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func newUsageError(cmd *cobra.Command, format string, args ...interface{}) error {
	return &usageError{cmd: cmd, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var usage *usageError
	var load *catalog.DataLoadError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.As(err, &load):
		return exitDataLoad
	case errors.Is(err, optimizer.ErrInfeasibleModel), errors.Is(err, optimizer.ErrUnboundedModel):
		return exitNoSquad
	case errors.Is(err, optimizer.ErrInternalConsistency):
		return exitInconsistent
	}
	return exitOther
}

// reportError prints err to stderr (with usage for command line errors) and
// returns the matching exit code.
func (a *app) reportError(err error) int {
	code := exitCode(err)
	fmt.Fprintf(a.stderr, "Error: %v\n", err)

	var usage *usageError
	if errors.As(err, &usage) && usage.cmd != nil {
		fmt.Fprint(a.stderr, usage.cmd.UsageString())
	}

	if a.log != nil {
		a.log.WithError(err).WithField("exit_code", code).Debug("Command failed")
	}
	return code
}
