// Command domaincheck is a thin CLI collaborator around the domaincheck
// engine: it builds a Configuration from flags/config file, hands a label
// list to Engine.Batch or Engine.Stream, and renders the result. It
// contains no protocol logic of its own.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
