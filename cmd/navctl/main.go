// Command navctl searches the fund catalog, syncs NAV history and compares rolling returns
// from the command line, using the same configuration and store as the server.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/simaogato/navflow-backend/internal/app"
	"github.com/simaogato/navflow-backend/internal/config"
	"github.com/simaogato/navflow-backend/internal/logging"
)

// opener builds the application for one command run
type opener func(ctx context.Context) (*app.App, error)

// openFromEnv loads NAVFLOW_* configuration and opens the configured store
func openFromEnv(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With().
		Str("run_id", uuid.NewString()).
		Logger()
	return app.New(ctx, cfg, logger)
}

// register adds every navctl command to c
func register(c *subcommands.Commander, open opener, out io.Writer) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&searchCmd{open: open, out: out}, "catalog")
	c.Register(&syncCmd{open: open, out: out}, "history")
	c.Register(&compareCmd{open: open, out: out}, "history")
	c.Register(&migrateCmd{open: open, out: out}, "store")
}

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander, openFromEnv, os.Stdout)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
