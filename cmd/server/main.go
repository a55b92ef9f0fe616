// Package main is the entry point for the kabumemo portfolio bookkeeping service.
package main

import (
	"os"

	"github.com/kabumemo/kabumemo/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
