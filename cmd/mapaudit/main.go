package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mapaudit/mapaudit/internal/adapters/inbound/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		// Audit findings were already rendered by the reporter.
		os.Exit(exitErr.Code)
	}

	// Infrastructure fault: the audit could not meaningfully run.
	fmt.Fprintln(os.Stderr, "mapaudit:", err)
	os.Exit(2)
}
