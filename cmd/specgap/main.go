// specgap finds what a requirements document leaves undefined, scores the
// risk of each gap and plans what to do about it.
//
// Usage:
//
//	specgap analyze requirements.md               # full report, markdown
//	specgap extract requirements.md -f json       # undefined elements only
//	specgap batch docs/*.md --workers 4           # many documents at once
//	specgap decide UE-003 defer --reason "phase 2"
//	specgap decisions report --document requirements.md
//	specgap serve                                 # MCP server (stdio transport)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/specgap/internal/model"
)

// Exit codes.
const (
	exitOK       = 0
	exitInvalid  = 1
	exitInternal = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	return exitCode(err)
}

// exitCode is 1 for anything the caller can fix and 2 otherwise.
func exitCode(err error) int {
	var inErr *model.InvalidInputError
	if errors.As(err, &inErr) {
		return exitInvalid
	}
	return exitInternal
}
