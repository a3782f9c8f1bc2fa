// Copyright The Groupware Project and each contributor.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/groupware-project/scheduling-reply-service/internal/logging"
	"github.com/groupware-project/scheduling-reply-service/internal/service"
)

// flags are the command line flags for the reply processor.
type flags struct {
	Debug bool
}

// environment are the environment variables for the reply processor.
type environment struct {
	NatsURL               string
	MaxAttendeesPerEvent  int
	MaxExtendedProperties int
}

// parseFlags parses command line flags for the reply processor
func parseFlags() flags {
	var debug = flag.Bool("d", false, "enable debug logging")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
	}
}

// parseEnv parses environment variables for the reply processor
func parseEnv() environment {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	defaults := service.DefaultServiceConfig()

	return environment{
		NatsURL:               natsURL,
		MaxAttendeesPerEvent:  parseIntEnv("MAX_ATTENDEES_PER_EVENT", defaults.MaxAttendeesPerEvent),
		MaxExtendedProperties: parseIntEnv("MAX_EXTENDED_PROPERTIES", defaults.MaxExtendedProperties),
	}
}

func parseIntEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.With(logging.ErrKey, err, "name", name, "value", raw).
			Error("invalid integer environment variable, using default")
		return fallback
	}
	return value
}
