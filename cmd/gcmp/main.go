// Command gcmp is an arbitrary-precision, left-to-right calculator.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/gcmp/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		// Failures with a report of their own (eval, test, replay) have
		// already printed it.
		if !errors.As(err, &exitErr) || exitErr.Code == cli.ExitCommandError {
			fmt.Fprintf(os.Stderr, "gcmp: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
