// Command pipectl validates, orders and runs linear pipeline documents and
// serves the stage catalog.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
