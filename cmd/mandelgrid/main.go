// Command mandelgrid evaluates Mandelbrot membership over a rectangular
// grid of arbitrary-precision points and ships the downstream tools that
// consume the resulting CSV: an HTTP API, a PNG renderer, a zoom suggester,
// and a statistics report.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/mandelgrid/internal/app"
	apperrors "github.com/agbru/mandelgrid/internal/errors"
)

func main() {
	os.Exit(run())
}

// run keeps main free of os.Exit so deferred cleanup always executes.
func run() int {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return apperrors.ExitErrorConfig
	}

	return application.Run(context.Background(), os.Stdout)
}
