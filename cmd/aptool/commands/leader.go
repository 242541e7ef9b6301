package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/leader"
	"github.com/urfave/cli"
)

// Leader returns the `aptool leader ...` command table.
func Leader() cli.Command {
	return cli.Command{
		Name:  "leader",
		Usage: "durable leader-election primitive",
		Subcommands: []cli.Command{
			{
				Name: "elect", Usage: "attempt to become leader of a pool", ArgsUsage: "POOL ID",
				Flags:  []cli.Flag{cli.Int64Flag{Name: "ttl", Value: 30}},
				Action: leaderElect,
			},
			{
				Name: "heartbeat", Usage: "renew leadership", ArgsUsage: "POOL ID",
				Flags:  []cli.Flag{cli.Int64Flag{Name: "ttl", Value: 30}},
				Action: leaderHeartbeat,
			},
			{Name: "check", Usage: "check a pool's current leader", ArgsUsage: "POOL", Action: leaderCheck},
			{Name: "resign", Usage: "resign leadership", ArgsUsage: "POOL ID", Action: leaderResign},
			{
				Name: "list", Usage: "enumerate active leader pools",
				Flags:  []cli.Flag{cli.IntFlag{Name: "limit", Value: 100}},
				Action: leaderList,
			},
		},
	}
}

func leaderElect(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool leader elect POOL ID", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "leader.elect", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := leader.New(drv).Elect(ctx, c.Args().Get(0), c.Args().Get(1), c.Int64("ttl"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func leaderHeartbeat(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool leader heartbeat POOL ID", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "leader.heartbeat", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := leader.New(drv).Heartbeat(ctx, c.Args().Get(0), c.Args().Get(1), c.Int64("ttl"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func leaderCheck(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool leader check POOL", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	held, rec, err := leader.New(drv).Check(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if !held {
		return writer(cfg).One(existsRecord{Exists: false})
	}
	return writer(cfg).One(*rec)
}

func leaderResign(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool leader resign POOL ID", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "leader.resign", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := leader.New(drv).Resign(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func leaderList(c *cli.Context) error {
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := leader.New(drv).List(ctx, c.Int("limit"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "pools", recs)
}
