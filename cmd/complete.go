package cmd

import (
	"flag"

	"github.com/assetutils/portfolio/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// fileFlags are the flags that name a file.
var fileFlags = map[string]bool{
	"config":         true,
	"portfolio-file": true,
	"catalog-file":   true,
}

// Complete handles shell completion requests, it exits when the process was
// started by the shell to complete a command line. Install the completion
// with COMP_INSTALL=1 aut.
func Complete(commander *subcommands.Commander, name string) {
	completion(commander).Complete(name)
}

// completion describes the command line of the commander.
func completion(commander *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{},
	}
	commander.VisitAll(func(f *flag.Flag) {
		root.Flags[f.Name] = predictFlag(f)
	})
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}}
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = predictFlag(f)
		})
		switch c.Name() {
		case "topic":
			sub.Args = predict.Set(docs.List())
		case "help":
			sub.Args = predict.Set(commandNames(commander))
		}
		root.Sub[c.Name()] = sub
	})
	return root
}

// predictFlag returns the completion of a flag value.
func predictFlag(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	switch {
	case fileFlags[f.Name]:
		return predict.Files("*")
	case f.Name == "p":
		return predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
	case f.Name == "type":
		return predict.Set{"etf", "fund"}
	}
	return predict.Something
}

// commandNames returns the name of every registered command.
func commandNames(commander *subcommands.Commander) []string {
	var names []string
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		names = append(names, c.Name())
	})
	return names
}

// IsCommand reports whether name is a registered command.
func IsCommand(commander *subcommands.Commander, name string) bool {
	found := false
	commander.VisitCommands(func(_ *subcommands.CommandGroup, c subcommands.Command) {
		found = found || c.Name() == name
	})
	return found
}
