// Package main is the entry point for the labs binary.
package main

import (
	"os"

	"github.com/Halkenhaeusser/labs/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
