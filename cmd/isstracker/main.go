package main

import (
	"os"

	"github.com/vjranagit/isstracker/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
