package commands

import (
	"github.com/dnvriend/aws-primitives-tool/internal/topic"
	"github.com/urfave/cli"
)

// Topic returns the `aptool topic ...` command table.
func Topic() cli.Command {
	return cli.Command{
		Name:  "topic",
		Usage: "pub/sub fan-out contract (SNS)",
		Subcommands: []cli.Command{
			{
				Name: "create", Usage: "create a topic", ArgsUsage: "NAME",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: "ordered"},
					cli.BoolFlag{Name: "content-dedup"},
				},
				Action: topicCreate,
			},
			{
				Name: "publish", Usage: "publish a message", ArgsUsage: "ARN BODY",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "group-id"},
					cli.StringFlag{Name: "dedup-id"},
					cli.StringFlag{Name: "subject"},
				},
				Action: topicPublish,
			},
			{Name: "list", Usage: "list topics", Action: topicList},
			{Name: "delete", Usage: "delete a topic", ArgsUsage: "ARN", Action: topicDelete},
			{
				Name: "subscribe", Usage: "subscribe a queue to a topic", ArgsUsage: "TOPIC_ARN QUEUE_URL",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: "raw-delivery"},
					cli.StringFlag{Name: "filter-policy"},
					cli.StringFlag{Name: "filter-scope"},
				},
				Action: topicSubscribe,
			},
		},
	}
}

func topicCreate(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool topic create NAME", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "topic.create", c.Args().Get(0)) {
		return nil
	}
	a, err := topicAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := a.Create(ctx, c.Args().Get(0), c.Bool("ordered"), c.Bool("content-dedup"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func topicPublish(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool topic publish ARN BODY", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "topic.publish", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	a, err := topicAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := a.Publish(ctx, topic.PublishInput{
		TopicARN: c.Args().Get(0), Body: c.Args().Get(1),
		GroupID: c.String("group-id"), DedupID: c.String("dedup-id"), Subject: c.String("subject"),
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func topicList(c *cli.Context) error {
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	a, err := topicAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := a.ListTopics(ctx)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "topics", recs)
}

func topicDelete(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool topic delete ARN", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "topic.delete", c.Args().Get(0)) {
		return nil
	}
	a, err := topicAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := a.DeleteTopic(ctx, c.Args().Get(0)); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func topicSubscribe(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool topic subscribe TOPIC_ARN QUEUE_URL", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "topic.subscribe", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	a, err := topicAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	m, err := mqAdapter(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	queueARN, err := m.QueueARN(ctx, c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	arn, err := a.SubscribeQueue(ctx, c.Args().Get(0), queueARN, c.Bool("raw-delivery"), c.String("filter-policy"), c.String("filter-scope"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(subscriptionRecord{ARN: arn})
}

// subscriptionRecord is the canonical response for a subscribe call.
type subscriptionRecord struct {
	ARN string `json:"arn"`
}

func (r subscriptionRecord) PrimaryScalar() interface{} { return r.ARN }
