// rdesk - remote desktop client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rdesk/cmd"
	rderr "rdesk/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rdesk: %v\n", err)
		if rderr.IsFatal(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
