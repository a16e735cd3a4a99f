// Command keychainctl saves, fetches, lists and deletes generic-password
// items through the keychain query translator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericfisherdev/keychainquery/internal/domain/model"
)

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
	exitUsage    = 64
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	switch model.KindOf(err) {
	case model.KindNotFound:
		return exitNotFound
	case model.KindInvalidParameters:
		return exitUsage
	default:
		return exitFailure
	}
}
