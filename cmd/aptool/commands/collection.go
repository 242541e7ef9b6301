package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/collection"
	"github.com/urfave/cli"
)

// Set returns the `aptool set ...` command table.
func Set() cli.Command {
	return cli.Command{
		Name:  "set",
		Usage: "durable unordered-set primitive",
		Subcommands: []cli.Command{
			{Name: "add", Usage: "add a member", ArgsUsage: "NAME MEMBER", Action: setAdd},
			{Name: "rem", Usage: "remove a member", ArgsUsage: "NAME MEMBER", Action: setRem},
			{Name: "is-member", Usage: "check membership", ArgsUsage: "NAME MEMBER", Action: setIsMember},
			{Name: "members", Usage: "list all members", ArgsUsage: "NAME", Action: setMembers},
			{Name: "card", Usage: "count members", ArgsUsage: "NAME", Action: setCard},
		},
	}
}

// List returns the `aptool list ...` command table.
func List() cli.Command {
	return cli.Command{
		Name:  "list",
		Usage: "durable ordered-list primitive",
		Subcommands: []cli.Command{
			{Name: "lpush", Usage: "push a value onto the head", ArgsUsage: "NAME VALUE", Action: listPush(-1)},
			{Name: "rpush", Usage: "push a value onto the tail", ArgsUsage: "NAME VALUE", Action: listPush(1)},
			{Name: "lpop", Usage: "pop the head value", ArgsUsage: "NAME", Action: listPop(-1)},
			{Name: "rpop", Usage: "pop the tail value", ArgsUsage: "NAME", Action: listPop(1)},
			{Name: "range", Usage: "read a range of the list", ArgsUsage: "NAME START STOP", Action: listRange},
		},
	}
}

func setAdd(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool set add NAME MEMBER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "set.add", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := collection.New(drv).SAdd(ctx, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func setRem(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool set rem NAME MEMBER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "set.rem", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := collection.New(drv).SRem(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func setIsMember(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool set is-member NAME MEMBER", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	ok, err := collection.New(drv).SIsMember(ctx, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(existsRecord{Exists: ok})
}

func setMembers(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool set members NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := collection.New(drv).SMembers(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func setCard(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool set card NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	n, err := collection.New(drv).SCard(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(countRecord{Count: n})
}

func listPush(dir int) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 2 {
			return cli.NewExitError("usage: aptool list lpush|rpush NAME VALUE", 2)
		}
		ctx, cancel, cfg := runCtx(c)
		defer cancel()
		if dryRunGuard(cfg, "list.push", c.Args().Get(0), c.Args().Get(1)) {
			return nil
		}
		drv, err := driver(cfg)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		p := collection.New(drv)
		var rec *collection.ListRecord
		if dir < 0 {
			rec, err = p.LPush(ctx, c.Args().Get(0), c.Args().Get(1))
		} else {
			rec, err = p.RPush(ctx, c.Args().Get(0), c.Args().Get(1))
		}
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	}
}

func listPop(dir int) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.NewExitError("usage: aptool list lpop|rpop NAME", 2)
		}
		ctx, cancel, cfg := runCtx(c)
		defer cancel()
		if dryRunGuard(cfg, "list.pop", c.Args().Get(0)) {
			return nil
		}
		drv, err := driver(cfg)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		p := collection.New(drv)
		var rec *collection.ListRecord
		if dir < 0 {
			rec, err = p.LPop(ctx, c.Args().Get(0))
		} else {
			rec, err = p.RPop(ctx, c.Args().Get(0))
		}
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	}
}

func listRange(c *cli.Context) error {
	if c.NArg() < 3 {
		return cli.NewExitError("usage: aptool list range NAME START STOP", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	start := parseInt64(c.Args().Get(1), 0)
	stop := parseInt64(c.Args().Get(2), -1)
	rec, err := collection.New(drv).LRange(ctx, c.Args().Get(0), start, stop)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}
