package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the bridge table server"`
	Client  ClientCmd        `cmd:"" help:"Sit at a table with the terminal client"`
	Deal    DealCmd          `cmd:"" help:"Print a shuffled deal"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bridgetable"),
		kong.Description("Four-seat bridge table server and terminal client"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
