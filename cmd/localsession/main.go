package main

import (
	"github.com/asad/localsession/internal/cli"
)

// main is the entry point for the localsession tool.
// It delegates to the CLI package which handles command parsing and execution.
func main() {
	cli.Execute()
}
