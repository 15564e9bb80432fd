package main

import (
	"context"
	"fmt"
	"os"

	"user-order-console/cmd/console/app"
	"user-order-console/cmd/console/commands"
)

func main() {
	ctx, stop := app.WithSignal(context.Background())
	err := commands.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !commands.IsReported(err) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
