package main

import (
	"context"
	"os"

	"ledgerbook/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		format, _ := cmd.PersistentFlags().GetString("format")
		out := &cli.Output{Format: format, Writer: os.Stderr}
		out.Fail(err)
		os.Exit(cli.GetExitCode(err))
	}
}
