package main

import (
	"fmt"
	"os"

	"github.com/erazemk/locography/cmd/locography/cli"
)

var (
	version = "0.1.0-dev"
	commit  = "main"
)

func main() {
	info := cli.VersionInfo{
		Version: version,
		Commit:  commit,
	}

	root := cli.NewRootCommand(info)

	root.AddCommand(cli.NewVersionCommand(info))
	root.AddCommand(cli.NewServeCommand(info))
	root.AddCommand(cli.NewReindexCommand())
	root.AddCommand(cli.NewConfigCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
