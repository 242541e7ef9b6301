package cliutil

import (
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/rs/zerolog"
)

// Session constructs the one aws-sdk-go session the whole process shares,
// mirroring ais/cloud/aws.go's createSession: credentials/region resolve
// through the SDK's own shared-config provider chain, never re-implemented
// here.
func Session(cfg Config) (*session.Session, error) {
	opts := session.Options{SharedConfigState: session.SharedConfigEnable}
	if cfg.Region != "" {
		opts.Config.Region = aws.String(cfg.Region)
	}
	if cfg.Profile != "" {
		opts.Profile = cfg.Profile
	}
	return session.NewSessionWithOptions(opts)
}

// Logger builds the single package-level stderr logger every command
// shares, gated by --verbose/--quiet It never
// writes to stdout, which is reserved for the formatter's JSON record.
func Logger(cfg Config) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case cfg.Quiet:
		level = zerolog.Disabled
	case cfg.Verbose:
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// Deadline derives a context.Context deadline from the resolved --timeout,
// applied uniformly to every command's top-level operation.
func Deadline(cfg Config) (time.Duration, bool) {
	if cfg.Timeout <= 0 {
		return 0, false
	}
	return cfg.Timeout, true
}
