// Package commands declares aptool's []cli.Command tables: each file owns
// one noun's Name/Usage/ArgsUsage/Flags/Action declarations.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dnvriend/aws-primitives-tool/internal/blob"
	"github.com/dnvriend/aws-primitives-tool/internal/cliutil"
	"github.com/dnvriend/aws-primitives-tool/internal/mq"
	"github.com/dnvriend/aws-primitives-tool/internal/output"
	"github.com/dnvriend/aws-primitives-tool/internal/store"
	"github.com/dnvriend/aws-primitives-tool/internal/topic"
	"github.com/urfave/cli"
)

// runCtx builds the per-command context.Context (deadline from --timeout),
// the resolved Config, and a release func the caller must defer.
func runCtx(c *cli.Context) (context.Context, context.CancelFunc, cliutil.Config) {
	cfg := cliutil.GlobalConfig(c)
	if d, ok := cliutil.Deadline(cfg); ok {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		return ctx, cancel, cfg
	}
	return context.Background(), func() {}, cfg
}

// driver constructs the shared DynamoDB-backed store.Driver for this
// invocation, per cliutil.Session's single session-construction path.
func driver(cfg cliutil.Config) (store.Driver, error) {
	sess, err := cliutil.Session(cfg)
	if err != nil {
		return nil, err
	}
	return store.NewDynamoDriver(sess, cfg.Table, cfg.Region), nil
}

// dynamoDriver constructs the concrete *store.DynamoDriver for the table
// lifecycle commands, which need CreateTable/DescribeTable/DeleteTable and
// so cannot operate through the narrower store.Driver interface every data
// primitive is built against.
func dynamoDriver(cfg cliutil.Config) (*store.DynamoDriver, error) {
	sess, err := cliutil.Session(cfg)
	if err != nil {
		return nil, err
	}
	return store.NewDynamoDriver(sess, cfg.Table, cfg.Region), nil
}

// blobTransfer constructs the shared S3-backed blob.Transfer for this
// invocation, the blob-package analogue of driver.
func blobTransfer(cfg cliutil.Config) (*blob.Transfer, error) {
	sess, err := cliutil.Session(cfg)
	if err != nil {
		return nil, err
	}
	return blob.NewTransfer(sess, cfg.Region, cfg.Concurrency), nil
}

// topicAdapter constructs the shared SNS-backed topic.Adapter for this
// invocation.
func topicAdapter(cfg cliutil.Config) (*topic.Adapter, error) {
	sess, err := cliutil.Session(cfg)
	if err != nil {
		return nil, err
	}
	return topic.NewFromSession(sess, cfg.Region), nil
}

// mqAdapter constructs the shared SQS-backed mq.Adapter for this
// invocation.
func mqAdapter(cfg cliutil.Config) (*mq.Adapter, error) {
	sess, err := cliutil.Session(cfg)
	if err != nil {
		return nil, err
	}
	return mq.NewFromSession(sess, cfg.Region), nil
}

// writer builds the output.Writer for this invocation's --format.
func writer(cfg cliutil.Config) *output.Writer {
	return output.NewWriter(os.Stdout, output.Format(cfg.Format))
}

// fail renders a primitive error through output.Error and returns a
// cli.ExitError carrying the fixed exit code, so cli.App.Run's own
// os.Exit reflects it.
func fail(err error, verbose bool) error {
	code := output.Error(os.Stderr, err, verbose)
	return cli.NewExitError("", code)
}

// dryRunGuard prints the request a mutating command would have sent and
// reports true, short-circuiting the caller before it touches AWS.
// Read-only commands never call this.
func dryRunGuard(cfg cliutil.Config, op string, args ...interface{}) bool {
	if !cfg.DryRun {
		return false
	}
	fmt.Fprintf(os.Stderr, "[dry-run] %s %v\n", op, args)
	return true
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// toRecords adapts a concrete []T of output.Record implementers to the
// interface slice output.Writer.Many expects.
func toRecords[T output.Record](items []T) []output.Record {
	out := make([]output.Record, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

// writeMany renders an enumerating primitive's results under the given
// envelope key.
func writeMany[T output.Record](cfg cliutil.Config, key string, items []T) error {
	return writer(cfg).Many(key, toRecords(items))
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
