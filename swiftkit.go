package main

import (
	"github.com/swiftkit/swiftkit/cmd"
)

// We structure the swiftkit command line tool as a single executable using
// the subcommand pattern, as is common for many cloud utilities. All of the
// actual command handling lives in cmd/.
func main() {
	cmd.Execute()
}
