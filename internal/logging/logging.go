package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"queuesweep/internal/config"
)

// Configure applies the log section of the configuration to the standard
// logrus logger. The returned closer releases the log file, if any.
//
// When quiet is set and no log file is configured, output is discarded. The
// dashboard uses this so log lines do not tear the alternate screen.
func Configure(c config.LogConfig, quiet bool) (io.Closer, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing log level %q", c.Level)
	}
	log.SetLevel(level)

	switch c.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	}

	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "opening log file %s", c.File)
		}
		log.SetOutput(f)
		return f, nil
	}

	if quiet {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}
	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
