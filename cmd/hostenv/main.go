// Package main is the entry point for the hostenv CLI.
package main

import (
	"os"

	"github.com/thoreinstein/hostenv/cmd/hostenv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(commands.HandleError(os.Stderr, err))
	}
}
