// Package main provides the redduck CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/redduck/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
