// aptool exposes durable cloud-backed distributed-systems primitives as
// composable shell commands, assembled from the per-noun command tables
// in cmd/aptool/commands.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"os"

	"github.com/dnvriend/aws-primitives-tool/cmd/aptool/commands"
	"github.com/dnvriend/aws-primitives-tool/internal/cliutil"
	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "aptool"
	app.Usage = "durable cloud-backed distributed-systems primitives, as shell commands"
	app.Version = version
	app.Flags = cliutil.GlobalFlags()
	app.EnableBashCompletion = true
	app.Commands = []cli.Command{
		commands.KV(),
		commands.Counter(),
		commands.Lock(),
		commands.Leader(),
		commands.Queue(),
		commands.Set(),
		commands.List(),
		commands.Transaction(),
		commands.Blob(),
		commands.Topic(),
		commands.MQ(),
		commands.Table(),
		commands.Completion(),
	}
	app.CommandNotFound = func(c *cli.Context, name string) {
		fmt.Fprintf(os.Stderr, "aptool: unknown command %q, see 'aptool help'\n", name)
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
