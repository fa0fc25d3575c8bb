package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/nextline/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text, none)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogger builds the stderr logger from the logging flags.
func setupLogger() logger.Logger {
	level := logLevel
	if debug {
		level = "debug"
	}
	return logger.Setup(os.Stderr, logFormat, level)
}
