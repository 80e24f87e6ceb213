package cygrid

import (
	"os"

	"github.com/rs/zerolog"
)

// log is the package-level structured logger. It only ever speaks at phase
// boundaries — target preparation, hash-table rebuilds, disc-cache
// invalidation and thread-count changes — never on the per-sample hot path
// (spec.md §7 propagation policy: the accumulation loop has no failure
// modes other than programmer error, so there is nothing worth logging
// there either).
var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
