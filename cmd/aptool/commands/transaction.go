package commands

import (
	"encoding/json"
	"os"

	"github.com/dnvriend/aws-primitives-tool/internal/txn"
	"github.com/urfave/cli"
)

// Transaction returns the `aptool transaction ...` command table.
func Transaction() cli.Command {
	return cli.Command{
		Name:  "transaction",
		Usage: "cross-primitive conditional batch",
		Subcommands: []cli.Command{
			{
				Name:      "execute",
				Usage:     "execute a batch of operations from a JSON file",
				ArgsUsage: "FILE",
				Action:    transactionExecute,
			},
		},
	}
}

func transactionExecute(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool transaction execute FILE", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()

	raw, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.NewExitError("reading batch file: "+err.Error(), 2)
	}
	var ops []txn.Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return cli.NewExitError("decoding batch file: "+err.Error(), 2)
	}
	if dryRunGuard(cfg, "transaction.execute", ops) {
		return nil
	}

	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := txn.New(drv).Execute(ctx, ops)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}
