// Command benchmark measures inference latency and streams CSV status rows
// and summaries to stdout.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
