package main

import (
	"bytes"
	"context"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/navflow-backend/internal/app"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/domain"
	"github.com/simaogato/navflow-backend/internal/logging"
)

type harness struct {
	open opener
	out  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/mf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"schemeCode": 1, "schemeName": "Alpha Fund - Direct Plan - Growth"},
			{"schemeCode": 2, "schemeName": "Alpha Fund - Regular Plan - Growth"}
		]`))
	})
	mux.HandleFunc("/mf/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"date": "04-02-2021", "nav": "120.00"},
			{"date": "01-01-2020", "nav": "100.00"}
		]}`))
	})
	source := httptest.NewServer(mux)
	t.Cleanup(source.Close)

	cfg := &config.Config{
		Store:               config.StoreSQLite,
		SQLitePath:          filepath.Join(t.TempDir(), "funds.db"),
		SourceBaseURL:       source.URL,
		SourceTimeout:       5 * time.Second,
		SourceRateLimit:     100,
		HighReturnThreshold: 0.12,
		MinHorizonYears:     0.5,
		TailPoints:          100,
	}

	return &harness{
		open: func(ctx context.Context) (*app.App, error) {
			return app.New(ctx, cfg, logging.Nop())
		},
	}
}

func (h *harness) run(t *testing.T, args ...string) subcommands.ExitStatus {
	t.Helper()
	h.out.Reset()

	fs := flag.NewFlagSet("navctl", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "navctl")
	register(commander, h.open, &h.out)
	require.NoError(t, fs.Parse(args))

	return commander.Execute(context.Background())
}

func TestMigrateCmd(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "migrate"))
	assert.Equal(t, "sqlite schema migrated to version 3 (applied [1 2 3])\n", h.out.String())

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "migrate"))
	assert.Equal(t, "sqlite schema is up to date (version 3)\n", h.out.String())
}

func TestSearchCmd(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "search", "Alpha"))
	assert.Equal(t, "[1] Alpha Fund - Direct Plan - Growth\n[2] Alpha Fund - Regular Plan - Growth\n", h.out.String())

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "search", "-filter", "regular", "Alpha"))
	assert.Equal(t, "[2] Alpha Fund - Regular Plan - Growth\n", h.out.String())

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "search", "-limit", "1", "Alpha"))
	assert.Equal(t, "[1] Alpha Fund - Direct Plan - Growth\n... 1 more\n", h.out.String())

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "search", "alpha"))
	assert.Equal(t, "No results found for 'alpha'.\n", h.out.String())

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "search"))
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "search", "-filter", "index", "Alpha"))
}

func TestSyncCmd(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "sync", "1"))
	assert.Equal(t, "1: 2 new NAVs\n", h.out.String())

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "sync", "1", "2"))
	// Scheme 2 has no history endpoint; the failure is logged and nothing is stored
	assert.Equal(t, "1: 0 new NAVs\n2: 0 new NAVs\n", h.out.String())

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "sync"))
}

func TestCompareCmd(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, subcommands.ExitSuccess, h.run(t, "search", "Alpha"))

	assert.Equal(t, subcommands.ExitSuccess, h.run(t, "compare", "-years", "1", "-benchmark", "0.05", "1", "2"))
	out := h.out.String()
	assert.Contains(t, out, "FUND: Alpha Fund - Direct Plan - Growth [1]")
	assert.Contains(t, out, "1-year windows:")
	assert.Contains(t, out, "36")
	assert.Contains(t, out, "Prob > 5%:")
	assert.Contains(t, out, "Prob > 12%:")
	assert.NotContains(t, out, "[2]")

	assert.Equal(t, subcommands.ExitFailure, h.run(t, "compare", "-years", "1", "2"))
	assert.Equal(t, "No data found for the provided scheme codes.\n", h.out.String())

	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "compare", "-years", "0.1", "1"))
	assert.Equal(t, subcommands.ExitUsageError, h.run(t, "compare"))
}

func TestWriteReports(t *testing.T) {
	var out bytes.Buffer
	writeReports(&out, map[string]*domain.AnalysisReport{
		"2": {Name: "Beta", BenchmarkUsed: 0.06, Threshold: 0.12},
		"1": {
			Name:          "Alpha",
			BenchmarkUsed: 0.06,
			Threshold:     0.12,
			Observations:  10,
			Metrics:       domain.Metrics{Mean: 0.1234},
			Probabilities: domain.Probabilities{BeatBenchmark: 0.75},
		},
	}, 3)

	text := out.String()
	assert.Less(t, bytes.Index(out.Bytes(), []byte("FUND: Alpha [1]")), bytes.Index(out.Bytes(), []byte("FUND: Beta [2]")))
	assert.Contains(t, text, "12.34%")
	assert.Contains(t, text, "75%")
	assert.Contains(t, text, "3-year windows:")
}
