// Command ledger schedules recurring obligations and reconciles receipts and
// payments against the freelance ledger.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/eshaffer321/freelance-ledger/internal/cli"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	app := cli.NewApp(os.Stdout, os.Stderr)
	app.RegisterFlags(flag.CommandLine)
	app.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
