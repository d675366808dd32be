// Package main provides the entry point for the siloctl CLI.
package main

import (
	"os"

	"github.com/siloindex/siloindex/cmd/siloctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
