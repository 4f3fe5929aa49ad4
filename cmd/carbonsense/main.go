// Command carbonsense estimates the carbon cost of JavaScript and
// TypeScript code.
package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
