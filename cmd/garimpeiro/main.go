package main

import (
	"os"

	"garimpeiro/cmd/garimpeiro/commands"
)

// main is the entry point for the garimpeiro CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
