package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/queue"
	"github.com/urfave/cli"
)

// Queue returns the `aptool queue ...` command table.
func Queue() cli.Command {
	return cli.Command{
		Name:  "queue",
		Usage: "durable item-store work queue primitive",
		Subcommands: []cli.Command{
			{
				Name: "push", Usage: "push a queue entry", ArgsUsage: "NAME BODY",
				Flags: []cli.Flag{
					cli.IntFlag{Name: "priority"},
					cli.StringFlag{Name: "dedup-id"},
					cli.Int64Flag{Name: "ttl"},
				},
				Action: queuePush,
			},
			{
				Name: "pop", Usage: "pop the next visible entry", ArgsUsage: "NAME",
				Flags:  []cli.Flag{cli.Int64Flag{Name: "visibility-timeout"}},
				Action: queuePop,
			},
			{
				Name: "peek", Usage: "view upcoming entries without popping", ArgsUsage: "NAME",
				Flags:  []cli.Flag{cli.IntFlag{Name: "count", Value: 10}},
				Action: queuePeek,
			},
			{Name: "size", Usage: "count entries in a queue", ArgsUsage: "NAME", Action: queueSize},
			{Name: "ack", Usage: "acknowledge and remove a popped entry", ArgsUsage: "NAME RECEIPT", Action: queueAck},
			{
				Name: "redrive", Usage: "move over-received entries to a dead-letter queue", ArgsUsage: "NAME DLQ_NAME",
				Flags:  []cli.Flag{cli.Int64Flag{Name: "max-receive-count", Value: 5}},
				Action: queueRedrive,
			},
		},
	}
}

func queuePush(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool queue push NAME BODY", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "queue.push", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	var ttl *int64
	if c.IsSet("ttl") {
		v := c.Int64("ttl")
		ttl = &v
	}
	rec, err := queue.New(drv).Push(ctx, c.Args().Get(0), c.Args().Get(1), c.Int("priority"), c.String("dedup-id"), c.IsSet("dedup-id"), ttl)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func queuePop(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool queue pop NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "queue.pop", c.Args().Get(0)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	var vt *int64
	if c.IsSet("visibility-timeout") {
		v := c.Int64("visibility-timeout")
		vt = &v
	}
	rec, err := queue.New(drv).Pop(ctx, c.Args().Get(0), vt)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func queuePeek(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool queue peek NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := queue.New(drv).Peek(ctx, c.Args().Get(0), c.Int("count"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "items", recs)
}

func queueSize(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool queue size NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	n, err := queue.New(drv).Size(ctx, c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(countRecord{Count: n})
}

func queueAck(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool queue ack NAME RECEIPT", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "queue.ack", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := queue.New(drv).Ack(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func queueRedrive(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool queue redrive NAME DLQ_NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "queue.redrive", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	drv, err := driver(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := queue.New(drv).Redrive(ctx, c.Args().Get(0), c.Args().Get(1), c.Int64("max-receive-count"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

// countRecord is the canonical response for every primitive's `size`/`card`
// count operations.
type countRecord struct {
	Count int `json:"count"`
}

func (r countRecord) PrimaryScalar() interface{} { return r.Count }
