// Command yaslc compiles YASL source files to abstract-machine assembly.
package main

import (
	"os"

	"github.com/arete/yaslc/cmd/yaslc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
