// Command aut tracks an investment portfolio: asset prices, trades, fees,
// reports and rebalancing.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/assetutils/portfolio/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "aut")
	cmd.Register(commander)
	cmd.Complete(commander, "aut")

	flag.Parse()

	// Unknown commands are delegated to an aut-<command> binary.
	if name := flag.Arg(0); name != "" && !cmd.IsCommand(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}
