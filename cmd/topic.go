package cmd

import (
	"context"
	"flag"

	"github.com/assetutils/portfolio/docs"
	"github.com/google/subcommands"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show documentation" }
func (*topicCmd) Usage() string {
	return `aut topic [<topic>...]

  Shows documentation for the given topics, "*" shows them all.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}

	doc, err := docs.Topics(topics...)
	if err != nil {
		return failf(subcommands.ExitFailure, "cannot read doc: %v", err)
	}
	if err := printMarkdown(doc); err != nil {
		return failf(subcommands.ExitFailure, "%v", err)
	}
	return subcommands.ExitSuccess
}
