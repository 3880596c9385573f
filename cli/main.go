package main

import (
	"os"

	"github.com/satishbabariya/pgquery/cli/commands"
	"github.com/satishbabariya/pgquery/cli/internal/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.NewPrinter(os.Stdout, os.Stderr, ui.FormatTable).Error("%v", err)
		os.Exit(1)
	}
}
