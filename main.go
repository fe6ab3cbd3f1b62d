package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/dendrascience/arcalts/internal/cmd"
	"github.com/dendrascience/arcalts/internal/logging"
)

func main() {
	if err := fang.Execute(context.Background(), cmd.NewRootCmd()); err != nil {
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}
