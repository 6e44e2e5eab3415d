// Package main is the entry point for the countdown operator CLI.
package main

import (
	"os"

	"github.com/good-yellow-bee/countdown/cmd/countdownctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
