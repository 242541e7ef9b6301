package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/kv"
	"github.com/urfave/cli"
)

// KV returns the `aptool kv ...` command table.
func KV() cli.Command {
	return cli.Command{
		Name:  "kv",
		Usage: "durable key/value primitive",
		Subcommands: []cli.Command{
			{
				Name:      "set",
				Usage:     "set a key's value",
				ArgsUsage: "NAME VALUE",
				Flags: []cli.Flag{
					cli.Int64Flag{Name: "ttl", Usage: "expire this key after N seconds"},
					cli.BoolFlag{Name: "if-not-exists"},
				},
				Action: kvSet,
			},
			{
				Name:      "get",
				Usage:     "read a key's value",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "default", Usage: "value to return if the key is absent"},
				},
				Action: kvGet,
			},
			{Name: "exists", Usage: "check whether a key exists", ArgsUsage: "NAME", Action: kvExists},
			{
				Name:      "delete",
				Usage:     "delete a key",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{cli.StringFlag{Name: "if-value", Usage: "only delete if the current value equals this"}},
				Action:    kvDelete,
			},
			{
				Name:      "list",
				Usage:     "list keys by prefix",
				ArgsUsage: "[PREFIX]",
				Flags:     []cli.Flag{cli.IntFlag{Name: "limit", Value: 100}},
				Action:    kvList,
			},
		},
	}
}

func kvSet(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool kv set NAME VALUE", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "kv.set", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	mode := kv.ModeOverwrite
	if c.Bool("if-not-exists") {
		mode = kv.ModeIfAbsent
	}
	var ttl *int64
	if c.IsSet("ttl") {
		v := c.Int64("ttl")
		ttl = &v
	}
	rec, err := kv.New(drv).Set(ctx, c.Args().Get(0), c.Args().Get(1), ttl, mode)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func kvGet(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool kv get NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := kv.New(drv).Get(ctx, c.Args().Get(0), c.String("default"), c.IsSet("default"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func kvExists(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool kv exists NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	ok, err := kv.New(drv).Exists(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(existsRecord{Exists: ok})
}

func kvDelete(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool kv delete NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "kv.delete", c.Args().Get(0)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	err = kv.New(drv).Delete(ctx, c.Args().Get(0), c.String("if-value"), c.IsSet("if-value"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func kvList(c *cli.Context) error {
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := kv.New(drv).List(ctx, c.Args().First(), c.Int("limit"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "items", recs)
}

// existsRecord is the canonical response for every primitive's `exists`
// check.
type existsRecord struct {
	Exists bool `json:"exists"`
}

func (r existsRecord) PrimaryScalar() interface{} { return r.Exists }
