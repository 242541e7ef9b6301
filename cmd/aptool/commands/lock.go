package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/lock"
	"github.com/urfave/cli"
)

// Lock returns the `aptool lock ...` command table.
func Lock() cli.Command {
	return cli.Command{
		Name:  "lock",
		Usage: "durable mutual-exclusion lock primitive",
		Subcommands: []cli.Command{
			{
				Name: "acquire", Usage: "acquire a lock", ArgsUsage: "NAME OWNER",
				Flags: []cli.Flag{
					cli.Int64Flag{Name: "ttl", Value: 30},
					cli.DurationFlag{Name: "wait"},
				},
				Action: lockAcquire,
			},
			{Name: "release", Usage: "release a held lock", ArgsUsage: "NAME OWNER", Action: lockRelease},
			{
				Name: "extend", Usage: "extend a held lock's TTL", ArgsUsage: "NAME OWNER",
				Flags:  []cli.Flag{cli.Int64Flag{Name: "ttl", Value: 30}},
				Action: lockExtend,
			},
			{Name: "check", Usage: "check a lock's current holder", ArgsUsage: "NAME", Action: lockCheck},
			{
				Name: "list", Usage: "enumerate held locks",
				Flags:  []cli.Flag{cli.IntFlag{Name: "limit", Value: 100}},
				Action: lockList,
			},
		},
	}
}

func lockAcquire(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool lock acquire NAME OWNER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "lock.acquire", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := lock.New(drv).Acquire(ctx, c.Args().Get(0), c.Args().Get(1), c.Int64("ttl"), c.Duration("wait"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func lockRelease(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool lock release NAME OWNER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "lock.release", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := lock.New(drv).Release(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func lockExtend(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool lock extend NAME OWNER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "lock.extend", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := lock.New(drv).Extend(ctx, c.Args().Get(0), c.Args().Get(1), c.Int64("ttl"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func lockCheck(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool lock check NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	held, rec, err := lock.New(drv).Check(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if !held {
		return writer(cfg).One(existsRecord{Exists: false})
	}
	return writer(cfg).One(*rec)
}

func lockList(c *cli.Context) error {
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := lock.New(drv).List(ctx, c.Int("limit"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "locks", recs)
}
