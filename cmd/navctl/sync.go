package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type syncCmd struct {
	open opener
	out  io.Writer
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch and store new NAVs for schemes" }
func (*syncCmd) Usage() string {
	return `navctl sync <scheme code>...

  Stores every NAV newer than the latest one already held for each scheme.
  Source failures are reported in the log and leave local data untouched.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one scheme code is required.")
		return subcommands.ExitUsageError
	}

	a, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	for _, code := range f.Args() {
		inserted, err := a.Sync.Sync(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing %s: %v\n", code, err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(c.out, "%s: %d new NAVs\n", code, inserted)
	}

	return subcommands.ExitSuccess
}
