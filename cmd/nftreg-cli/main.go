// Package main provides the entry point for nftreg-cli.
//
// nftreg-cli is the command-line management tool for the token
// registry server, covering registry queries, token operations and
// custodian administration.
package main

import (
	"fmt"
	"os"

	"github.com/mintworks/nftregistry-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
