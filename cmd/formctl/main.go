// Command formctl drives schema based forms against a remote data service:
// it prints schemas, fills and validates forms, loads indexed records,
// submits entries and reloads schemas on a schedule.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

type CLI struct {
	Globals

	Schema  SchemaCmd        `cmd:"" help:"Print the schema of a form."`
	Fill    FillCmd          `cmd:"" help:"Fill a form and print its state and errors."`
	Load    LoadCmd          `cmd:"" help:"Load the record matching the index fields."`
	Submit  SubmitCmd        `cmd:"" help:"Fill, validate and submit a form."`
	Watch   WatchCmd         `cmd:"" help:"Reload a form schema on a cron expression."`
	Version kong.VersionFlag `help:"Print the version and exit."`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "formctl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("formctl"),
		kong.Description("Drive schema based forms against a remote data service."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version},
		kong.BindTo(stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&cli.Globals)
}
