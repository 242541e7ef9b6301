package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dnvriend/aws-primitives-tool/internal/blob"
	"github.com/urfave/cli"
)

// Blob returns the `aptool blob ...` command table.
func Blob() cli.Command {
	return cli.Command{
		Name:  "blob",
		Usage: "object-store blob transfer/metadata primitive",
		Subcommands: []cli.Command{
			{
				Name: "put", Usage: "upload a file", ArgsUsage: "LOCAL_PATH S3_URI",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "content-type"},
					cli.BoolFlag{Name: "if-not-exists"},
					cli.StringFlag{Name: "if-match"},
				},
				Action: blobPut,
			},
			{
				Name: "get", Usage: "download an object", ArgsUsage: "S3_URI LOCAL_PATH",
				Flags:  []cli.Flag{cli.StringFlag{Name: "version-id"}},
				Action: blobGet,
			},
			{
				Name: "put-dir", Usage: "upload a directory tree", ArgsUsage: "LOCAL_DIR S3_URI",
				Flags: []cli.Flag{
					cli.StringSliceFlag{Name: "include"},
					cli.StringSliceFlag{Name: "exclude"},
					cli.IntFlag{Name: "workers"},
					cli.BoolFlag{Name: "progress"},
				},
				Action: blobPutDir,
			},
			{
				Name: "get-dir", Usage: "download a prefix to a directory", ArgsUsage: "S3_URI LOCAL_DIR",
				Flags: []cli.Flag{
					cli.StringSliceFlag{Name: "include"},
					cli.StringSliceFlag{Name: "exclude"},
					cli.IntFlag{Name: "workers"},
					cli.BoolFlag{Name: "progress"},
				},
				Action: blobGetDir,
			},
			{
				Name: "sync-up", Usage: "mirror a local directory to a prefix", ArgsUsage: "LOCAL_DIR S3_URI",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: "delete"},
					cli.BoolFlag{Name: "size-only"},
					cli.BoolFlag{Name: "progress"},
				},
				Action: blobSyncUp,
			},
			{
				Name: "sync-down", Usage: "mirror a prefix to a local directory", ArgsUsage: "S3_URI LOCAL_DIR",
				Flags: []cli.Flag{
					cli.BoolFlag{Name: "delete"},
					cli.BoolFlag{Name: "size-only"},
					cli.BoolFlag{Name: "progress"},
				},
				Action: blobSyncDown,
			},
			{
				Name: "head", Usage: "read object metadata", ArgsUsage: "S3_URI",
				Flags:  []cli.Flag{cli.StringFlag{Name: "version-id"}},
				Action: blobHead,
			},
			{Name: "tag", Usage: "replace an object's tag set", ArgsUsage: "S3_URI KEY=VALUE...", Action: blobTag},
			{Name: "untag", Usage: "clear an object's tag set", ArgsUsage: "S3_URI", Action: blobUntag},
			{
				Name: "list-versions", Usage: "list an object's versions", ArgsUsage: "S3_URI",
				Flags:  []cli.Flag{cli.IntFlag{Name: "limit", Value: 100}},
				Action: blobListVersions,
			},
			{
				Name: "presign", Usage: "presign a GET/PUT URL", ArgsUsage: "S3_URI",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "method", Value: "GET"},
					cli.DurationFlag{Name: "expires-in", Value: 15 * time.Minute},
				},
				Action: blobPresign,
			},
			{
				Name: "select", Usage: "run an S3 Select query", ArgsUsage: "S3_URI QUERY",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "input-format", Value: "csv"},
					cli.StringFlag{Name: "output-format", Value: "json"},
				},
				Action: blobSelect,
			},
			{
				Name: "bucket", Usage: "bucket lifecycle (create|delete|enable-versioning)", ArgsUsage: "ACTION BUCKET",
				Action: blobBucket,
			},
		},
	}
}

func blobPut(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob put LOCAL_PATH S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "blob.put", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	dst, err := blob.ParseURI(c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := t.Put(ctx, c.Args().Get(0), dst, blob.PutOptions{
		ContentType: c.String("content-type"),
		IfNotExists: c.Bool("if-not-exists"),
		IfMatch:     c.String("if-match"),
		Threshold:   cfg.Threshold,
		ChunkSize:   cfg.ChunkSize,
		Workers:     cfg.Concurrency,
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func blobGet(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob get S3_URI LOCAL_PATH", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	src, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	f, err := os.Create(c.Args().Get(1))
	if err != nil {
		return cli.NewExitError("creating "+c.Args().Get(1)+": "+err.Error(), 2)
	}
	defer f.Close()
	rec, err := t.Get(ctx, src, f, blob.GetOptions{VersionID: c.String("version-id")})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

// runWithProgress shows an indeterminate cheggaaa/pb/v3 bar for the
// duration of a directory/sync transfer when --progress is set, then
// settles it to the final file count once the batch (which reports
// per-file results only on completion, not incrementally) returns.
func runWithProgress(c *cli.Context, op func() ([]blob.FileResult, error)) ([]blob.FileResult, error) {
	if !c.Bool("progress") {
		return op()
	}
	bar := pb.StartNew(0)
	bar.SetTemplateString(`{{ (cycle . "⠋" "⠙" "⠹" "⠸" "⠼" "⠴" "⠦" "⠧" "⠇" "⠏") }} transferring...`)
	results, err := op()
	bar.SetTotal(int64(len(results)))
	bar.SetCurrent(int64(len(results)))
	bar.Finish()
	return results, err
}

func blobPutDir(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob put-dir LOCAL_DIR S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "blob.put-dir", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	dst, err := blob.ParseURI(c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	filter := blob.GlobFilter{Include: c.StringSlice("include"), Exclude: c.StringSlice("exclude")}
	results, err := runWithProgress(c, func() ([]blob.FileResult, error) {
		return t.PutDirectory(ctx, c.Args().Get(0), dst, filter, c.Int("workers"), blob.PutOptions{})
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "files", results)
}

func blobGetDir(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob get-dir S3_URI LOCAL_DIR", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	src, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	filter := blob.GlobFilter{Include: c.StringSlice("include"), Exclude: c.StringSlice("exclude")}
	results, err := runWithProgress(c, func() ([]blob.FileResult, error) {
		return t.GetDirectory(ctx, src, c.Args().Get(1), filter, c.Int("workers"))
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "files", results)
}

func blobSyncUp(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob sync-up LOCAL_DIR S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "blob.sync-up", c.Args().Get(0), c.Args().Get(1)) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	dst, err := blob.ParseURI(c.Args().Get(1))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	results, err := runWithProgress(c, func() ([]blob.FileResult, error) {
		return t.SyncUp(ctx, c.Args().Get(0), dst, blob.SyncOptions{
			SizeOnly: c.Bool("size-only"), Delete: c.Bool("delete"), Workers: cfg.Concurrency,
		})
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "files", results)
}

func blobSyncDown(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob sync-down S3_URI LOCAL_DIR", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	src, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	results, err := runWithProgress(c, func() ([]blob.FileResult, error) {
		return t.SyncDown(ctx, src, c.Args().Get(1), blob.SyncOptions{
			SizeOnly: c.Bool("size-only"), Delete: c.Bool("delete"), Workers: cfg.Concurrency,
		})
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "files", results)
}

func blobHead(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool blob head S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := t.Head(ctx, uri, c.String("version-id"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func blobTag(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob tag S3_URI KEY=VALUE...", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "blob.tag", []string(c.Args())) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	tags := map[string]string{}
	for _, kv := range c.Args()[1:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return cli.NewExitError("tag "+kv+" is not of the form KEY=VALUE", 2)
		}
		tags[parts[0]] = parts[1]
	}
	if err := t.Tag(ctx, uri, tags); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func blobUntag(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool blob untag S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	if dryRunGuard(cfg, "blob.untag", c.Args().Get(0)) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	if err := t.Untag(ctx, uri); err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func blobListVersions(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool blob list-versions S3_URI", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	recs, err := t.ListVersions(ctx, uri, c.Int("limit"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writeMany(cfg, "versions", recs)
}

func blobPresign(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.NewExitError("usage: aptool blob presign S3_URI", 2)
	}
	_, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	rec, err := t.Presign(uri, c.String("method"), c.Duration("expires-in"))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return writer(cfg).One(*rec)
}

func blobSelect(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob select S3_URI QUERY", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	uri, err := blob.ParseURI(c.Args().Get(0))
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	w := writer(cfg)
	err = t.Select(ctx, uri, c.Args().Get(1), c.String("input-format"), c.String("output-format"), func(row blob.SelectRow) error {
		return w.One(row)
	})
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	return nil
}

func blobBucket(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.NewExitError("usage: aptool blob bucket ACTION BUCKET", 2)
	}
	ctx, cancel, cfg := runCtx(c)
	defer cancel()
	action, bucket := c.Args().Get(0), c.Args().Get(1)
	if dryRunGuard(cfg, "blob.bucket."+action, bucket) {
		return nil
	}
	t, err := blobTransfer(cfg)
	if err != nil {
		return fail(err, cfg.Verbose)
	}
	switch action {
	case "create":
		rec, err := t.CreateBucket(ctx, bucket, cfg.Region)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	case "delete":
		if err := t.DeleteBucket(ctx, bucket); err != nil {
			return fail(err, cfg.Verbose)
		}
		return nil
	case "enable-versioning":
		rec, err := t.EnableVersioning(ctx, bucket)
		if err != nil {
			return fail(err, cfg.Verbose)
		}
		return writer(cfg).One(*rec)
	default:
		return cli.NewExitError(fmt.Sprintf("unknown bucket action %q: use create, delete, or enable-versioning", action), 2)
	}
}
