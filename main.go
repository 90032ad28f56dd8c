package main

import (
	"github.com/acavel/qrservice/cmd"

	// Subcommands register themselves with the root command via init().
	_ "github.com/acavel/qrservice/cmd/cli"
	_ "github.com/acavel/qrservice/cmd/server"
)

func main() {
	cmd.Execute()
}
