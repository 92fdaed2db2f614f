package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/simaogato/navflow-backend/internal/domain"
	"github.com/simaogato/navflow-backend/internal/usecase/analysis"
)

type compareCmd struct {
	open      opener
	out       io.Writer
	years     float64
	benchmark float64
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare rolling returns of schemes" }
func (*compareCmd) Usage() string {
	return `navctl compare [-years 3] [-benchmark 0.06] <scheme code>...

  Syncs each scheme, then prints rolling-return statistics and the probability
  of a loss, of beating the benchmark and of beating the high-return threshold.
  Schemes without enough history for the horizon are left out.
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.years, "years", 3, "rolling horizon in years")
	f.Float64Var(&c.benchmark, "benchmark", 0.06, "annual benchmark rate, e.g. 0.06 for 6%")
}

func (c *compareCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	reports, err := a.Analysis.Compare(ctx, analysis.Request{
		Codes:     f.Args(),
		Years:     c.years,
		Benchmark: c.benchmark,
	})
	if errors.Is(err, domain.ErrValidation) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing funds: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(reports) == 0 {
		fmt.Fprintln(c.out, "No data found for the provided scheme codes.")
		return subcommands.ExitFailure
	}

	writeReports(c.out, reports, c.years)
	return subcommands.ExitSuccess
}

// writeReports prints one block per scheme, ordered by code
func writeReports(out io.Writer, reports map[string]*domain.AnalysisReport, years float64) {
	codes := make([]string, 0, len(reports))
	for code := range reports {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for i, code := range codes {
		r := reports[code]
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "FUND: %s [%s]\n", r.Name, code)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  %g-year windows:\t%d\n", years, r.Observations)
		fmt.Fprintf(w, "  Mean Return:\t%.2f%%\n", r.Metrics.Mean*100)
		fmt.Fprintf(w, "  Median Return:\t%.2f%%\n", r.Metrics.Median*100)
		fmt.Fprintf(w, "  Range:\t%.2f%% .. %.2f%%\n", r.Metrics.Min*100, r.Metrics.Max*100)
		fmt.Fprintf(w, "  Volatility:\t%.2f%%\n", r.Metrics.StdDev*100)
		fmt.Fprintf(w, "  Prob > %.0f%%:\t%.0f%%\n", r.BenchmarkUsed*100, r.Probabilities.BeatBenchmark*100)
		fmt.Fprintf(w, "  Prob > %.0f%%:\t%.0f%%\n", r.Threshold*100, r.Probabilities.BeatThreshold*100)
		fmt.Fprintf(w, "  Prob Loss:\t%.0f%%\n", r.Probabilities.Negative*100)
		w.Flush()
	}
}
