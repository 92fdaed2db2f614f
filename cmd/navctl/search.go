package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/simaogato/navflow-backend/internal/domain"
)

type searchCmd struct {
	open   opener
	out    io.Writer
	filter string
	limit  int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search the fund catalog by name" }
func (*searchCmd) Usage() string {
	return `navctl search [-filter direct-growth|regular] [-limit n] <keyword>

  Prints funds whose name contains the keyword (case-sensitive), direct-growth
  plans first. The catalog is downloaded on first use.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.filter, "filter", "", "restrict results: direct-growth or regular")
	f.IntVar(&c.limit, "limit", 20, "maximum results to print (0 for all)")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a keyword is required.")
		return subcommands.ExitUsageError
	}
	keyword := strings.Join(f.Args(), " ")

	filter, err := domain.ParseSearchFilter(c.filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	results, err := a.Catalog.Search(ctx, keyword, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error searching funds: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(results) == 0 {
		fmt.Fprintf(c.out, "No results found for '%s'.\n", keyword)
		return subcommands.ExitSuccess
	}

	shown := results
	if c.limit > 0 && len(shown) > c.limit {
		shown = shown[:c.limit]
	}
	for _, r := range shown {
		fmt.Fprintf(c.out, "[%s] %s\n", r.Code, r.Name)
	}
	if len(shown) < len(results) {
		fmt.Fprintf(c.out, "... %d more\n", len(results)-len(shown))
	}

	return subcommands.ExitSuccess
}
