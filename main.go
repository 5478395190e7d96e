package main

import (
	"os"

	"github.com/kyleking/cas-sdss-mcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
