package main

import (
	"os"

	"github.com/jhoicas/concesionaria-api/cmd/concesionaria/commands"
)

var version = "dev"

func main() {
	commands.SetVersion(version)
	// los errores ya los imprimió el printer
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
