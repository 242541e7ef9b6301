// Package cliutil holds the process-wide configuration and AWS session
// construction shared by every cmd/aptool command: an explicit
// configuration record passed to each action, rather than ambient
// globals.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package cliutil

import (
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli"
)

const (
	defaultTable        = "aptool"
	defaultRegion       = "us-east-1"
	defaultTimeout      = 30 * time.Second
	defaultMultipartMiB = 100
	defaultChunkMiB     = 100
	defaultConcurrency  = 10
	defaultFormat       = "json"
)

// Config is the explicit configuration record every command reads instead
// of consulting ambient globals; it is resolved once per process from
// flags, environment, and compiled defaults, in that precedence order:
// flag > env > default.
type Config struct {
	Table       string
	Region      string
	Profile     string
	Format      string
	Verbose     bool
	Quiet       bool
	Timeout     time.Duration
	Threshold   int64
	ChunkSize   int64
	Concurrency int
	DryRun      bool
}

func resolveString(flagVal, env, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func resolveInt64(flagVal int64, env string, def int64) int64 {
	if flagVal > 0 {
		return flagVal
	}
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func resolveInt(flagVal int, env string, def int) int {
	if flagVal > 0 {
		return flagVal
	}
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GlobalConfig resolves the shared flags declared on the root cli.App,
// applying the flag ⇒ APTOOL_* env ⇒ compiled default order.
func GlobalConfig(c *cli.Context) Config {
	timeoutSeconds := resolveInt64(int64(c.GlobalInt("timeout")), "APTOOL_TIMEOUT_SECONDS", int64(defaultTimeout/time.Second))
	return Config{
		Table:       resolveString(c.GlobalString("table"), "APTOOL_TABLE", defaultTable),
		Region:      resolveString(c.GlobalString("region"), "APTOOL_REGION", defaultRegion),
		Profile:     resolveString(c.GlobalString("profile"), "AWS_PROFILE", ""),
		Format:      resolveString(c.GlobalString("format"), "APTOOL_FORMAT", defaultFormat),
		Verbose:     c.GlobalBool("verbose"),
		Quiet:       c.GlobalBool("quiet"),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		Threshold:   resolveInt64(0, "APTOOL_MULTIPART_THRESHOLD_MIB", defaultMultipartMiB) * 1024 * 1024,
		ChunkSize:   resolveInt64(0, "APTOOL_CHUNK_SIZE_MIB", defaultChunkMiB) * 1024 * 1024,
		Concurrency: resolveInt(0, "APTOOL_CONCURRENCY", defaultConcurrency),
		DryRun:      c.GlobalBool("dry-run") || c.Bool("dry-run"),
	}
}

// GlobalFlags is the flag table declared once on the root cli.App and
// inherited by every subcommand.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "table", Usage: "backing item-store table name"},
		cli.StringFlag{Name: "region", Usage: "AWS region"},
		cli.StringFlag{Name: "profile", Usage: "AWS shared-config profile"},
		cli.StringFlag{Name: "format", Usage: "output format: json|json-lines|value|table"},
		cli.BoolFlag{Name: "verbose", Usage: "print the underlying service error beneath each failure"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress all non-error stderr output"},
		cli.IntFlag{Name: "timeout", Usage: "per-command deadline in seconds"},
		cli.BoolFlag{Name: "dry-run", Usage: "print the request that would be sent without performing it"},
	}
}
