// Command carrierfit indexes carrier underwriting guidelines and scores
// client profiles against them. It provides a CLI (via Cobra) and an HTTP
// server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/54b3r/carrierfit/cmd/carrierfit/commands"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
