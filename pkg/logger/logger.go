// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger configures the process-wide zerolog logger. Packages
// log through the zerolog global; commands call Init once at startup.
package logger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environments understood by Init.
const (
	Production  = "production"
	Development = "development"
)

// Init sets up the global logger. Production logs structured JSON at
// info level; any other environment gets a console writer at debug
// level with caller info.
func Init(environment string) {
	if environment == Production {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).
		With().Timestamp().Caller().Logger().
		Level(zerolog.DebugLevel)
}

// New returns a named component logger derived from the global one.
func New(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
