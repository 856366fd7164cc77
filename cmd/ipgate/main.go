package main

import (
	"fmt"
	"os"

	"github.com/roach88/ipgate/internal/cli"
)

// Version information (injected via ldflags at build time)
var version = "dev"

func main() {
	root := cli.NewRootCommand()
	root.Version = version

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
