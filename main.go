package main

import (
	"fmt"
	"os"

	"github.com/stateful/blocky/internal/cmd"
	"github.com/stateful/blocky/internal/version"
)

func root() int {
	root := cmd.Root()
	root.Version = version.Summary("blocky")
	root.SetVersionTemplate("{{.Version}}\n")
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func main() {
	os.Exit(root())
}
