package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/counter"
	"github.com/urfave/cli"
)

// Counter returns the `aptool counter ...` command table.
func Counter() cli.Command {
	return cli.Command{
		Name:  "counter",
		Usage: "durable atomic counter primitive",
		Subcommands: []cli.Command{
			{
				Name: "add", Usage: "add a delta to a counter", ArgsUsage: "NAME DELTA",
				Flags:  []cli.Flag{cli.BoolFlag{Name: "create"}},
				Action: counterOp(1),
			},
			{
				Name: "inc", Usage: "increment a counter by 1", ArgsUsage: "NAME",
				Flags:  []cli.Flag{cli.BoolFlag{Name: "create"}, cli.Int64Flag{Name: "by", Value: 1}},
				Action: counterStep(1),
			},
			{
				Name: "dec", Usage: "decrement a counter by 1", ArgsUsage: "NAME",
				Flags:  []cli.Flag{cli.BoolFlag{Name: "create"}, cli.Int64Flag{Name: "by", Value: 1}},
				Action: counterStep(-1),
			},
			{Name: "get", Usage: "read a counter's value", ArgsUsage: "NAME", Action: counterGet},
		},
	}
}

func counterOp(sign int64) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			return cli.NewExitError("usage: aptool counter add NAME DELTA", 2)
		}
		ctx, cancel, cfg := runCtx(c)
		defer cancel()
		if dryRunGuard(cfg, "counter.add", c.Args().Get(0), c.Args().Get(1)) {
			return nil
		}
		drv, err := driver(cfg)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		by := parseInt64(c.Args().Get(1), 0) * sign
		rec, err := counter.New(drv).Add(ctx, c.Args().Get(0), by, c.Bool("create"))
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	}
}

func counterStep(sign int64) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.NewExitError("usage: aptool counter inc|dec NAME", 2)
		}
		ctx, cancel, cfg := runCtx(c)
		defer cancel()
		if dryRunGuard(cfg, "counter.step", c.Args().Get(0)) {
			return nil
		}
		drv, err := driver(cfg)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		by := c.Int64("by") * sign
		rec, err := counter.New(drv).Add(ctx, c.Args().Get(0), by, c.Bool("create"))
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	}
}

func counterGet(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool counter get NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := counter.New(drv).Get(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}
