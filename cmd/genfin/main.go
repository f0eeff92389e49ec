package main

import (
	"os"

	"github.com/genfin-dev/genfin/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
