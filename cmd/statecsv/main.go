package main

import (
	"os"

	"statedash/cmd/statecsv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
