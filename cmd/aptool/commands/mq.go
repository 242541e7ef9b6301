package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/mq"
	"github.com/urfave/cli"
)

// MQ returns the `aptool mq ...` command table.
func MQ() cli.Command {
	return cli.Command{
		Name:  "mq",
		Usage: "managed message-queue contract (SQS)",
		Subcommands: []cli.Command{
			{
				Name: "create", Usage: "create a queue", ArgsUsage: "NAME",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: "ordered"},
					cli.Int64Flag{Name: "visibility-timeout"},
					cli.Int64Flag{Name: "retention"},
					cli.Int64Flag{Name: "delivery-delay"},
					cli.Int64Flag{Name: "receive-wait"},
					cli.StringFlag{Name: "dlq"},
					cli.Int64Flag{Name: "max-receive-count"},
					cli.BoolFlag{Name: "content-dedup"},
				},
				Action: mqCreate,
			},
			{
				Name: "send", Usage: "send a message", ArgsUsage: "QUEUE_URL BODY",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "group-id"},
					cli.StringFlag{Name: "dedup-id"},
					cli.Int64Flag{Name: "delay"},
				},
				Action: mqSend,
			},
			{
				Name: "receive", Usage: "receive messages", ArgsUsage: "QUEUE_URL",
				Flags: []cli.Flag{
					cli.Int64Flag{Name: "max", Value: 1},
					cli.Int64Flag{Name: "visibility-timeout"},
					cli.Int64Flag{Name: "wait"},
					cli.BoolFlag{Name: "auto-delete"},
				},
				Action: mqReceive,
			},
			{Name: "delete", Usage: "delete a received message", ArgsUsage: "QUEUE_URL RECEIPT", Action: mqDelete},
			{Name: "purge", Usage: "purge a queue", ArgsUsage: "QUEUE_URL", Action: mqPurge},
			{Name: "delete-queue", Usage: "delete a queue", ArgsUsage: "QUEUE_URL", Action: mqDeleteQueue},
		},
	}
}

func mqCreate(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool mq create NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "mq.create", c.Args().Get(0)) {
		return nil
	}
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := a.Create(ctx, mq.CreateInput{
		Name: c.Args().Get(0), Ordered: c.Bool("ordered"),
		VisibilityTimeout: c.Int64("visibility-timeout"), RetentionSeconds: c.Int64("retention"),
		DeliveryDelay: c.Int64("delivery-delay"), ReceiveWaitTime: c.Int64("receive-wait"),
		DLQArn: c.String("dlq"), MaxReceiveCount: c.Int64("max-receive-count"),
		ContentDedup: c.Bool("content-dedup"),
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func mqSend(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool mq send QUEUE_URL BODY", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "mq.send", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := a.Send(ctx, mq.SendInput{
		QueueURL: c.Args().Get(0), Body: c.Args().Get(1),
		GroupID: c.String("group-id"), DedupID: c.String("dedup-id"), Delay: c.Int64("delay"),
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func mqReceive(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool mq receive QUEUE_URL", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := a.Receive(ctx, mq.ReceiveInput{
		QueueURL: c.Args().Get(0), MaxMessages: int64(c.Int("max")), VisibilityTimeout: c.Int64("visibility-timeout"),
		WaitSeconds: int64(c.Int("wait")), WithAttributes: true, AutoDelete: c.Bool("auto-delete"),
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "messages", recs)
}

func mqDelete(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool mq delete QUEUE_URL RECEIPT", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "mq.delete", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := a.Delete(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func mqPurge(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool mq purge QUEUE_URL", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "mq.purge", c.Args().Get(0)) {
		return nil
	}
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := a.Purge(ctx, c.Args().Get(0)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func mqDeleteQueue(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool mq delete-queue QUEUE_URL", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "mq.delete-queue", c.Args().Get(0)) {
		return nil
	}
	a, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := a.DeleteQueue(ctx, c.Args().Get(0)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}
