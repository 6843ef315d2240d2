package main

import (
	"os"

	"github.com/zoobzio/formz/cmd/formz/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
