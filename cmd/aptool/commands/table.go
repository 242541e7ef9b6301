package commands

import "github.com/urfave/cli"

// Table returns the `aptool table ...` command table for the backing
// DynamoDB-shaped item store's own lifecycle.
func Table() cli.Command {
	return cli.Command{
		Name:  "table",
		Usage: "backing item-store table lifecycle",
		Subcommands: []cli.Command{
			{Name: "create", Usage: "create the backing table", ArgsUsage: "NAME", Action: tableCreate},
			{Name: "describe", Usage: "describe the backing table", ArgsUsage: "NAME", Action: tableDescribe},
			{Name: "delete", Usage: "delete the backing table", ArgsUsage: "NAME", Action: tableDelete},
		},
	}
}

func tableCreate(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool table create NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "table.create", c.Args().Get(0)) {
		return nil
	}
	drv, err := dynamoDriver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := drv.CreateTable(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func tableDescribe(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool table describe NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := dynamoDriver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := drv.DescribeTable(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func tableDelete(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool table delete NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "table.delete", c.Args().Get(0)) {
		return nil
	}
	drv, err := dynamoDriver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := drv.DeleteTable(ctx, c.Args().Get(0)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}
