package main

import (
	"context"
	"fmt"
	"os"

	"github.com/martinsuchenak/labeld/cmd/printer"
	"github.com/martinsuchenak/labeld/cmd/server"
	"github.com/paularlott/cli"
)

var version = "dev"

func main() {
	root := &cli.Command{
		Name:        "labeld",
		Version:     version,
		Usage:       "Label printer fleet manager",
		Description: "Discover Brother QL label printers, manage their configuration and print to them",
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:     "printer",
				Usage:    "Manage printers and print labels",
				Commands: printer.Commands(),
			},
		},
	}

	if err := root.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
