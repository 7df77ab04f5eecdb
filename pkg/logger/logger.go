// Package logger provides the leveled loggers shared by the console core and its server.
//
// Loggers are github.com/labstack/gommon/log, which is also what echo uses,
// so one logger instance can be handed both to the core and to echo.
package logger

import (
	"io"
	"strings"

	"github.com/labstack/gommon/log"
)

// Null returns a logger which writes nothing.
func Null() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// Default returns a logger writing to stderr at INFO.
func Default(prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(log.INFO)
	l.SetHeader(`[${prefix}] ${time_rfc3339} ${level} ${short_file}:${line}`)
	return l
}

// ParseLevel maps "debug|info|warn|error|off" to a level.
//
// Unknown or empty names fall back to WARN, with ok = false for unknown names.
func ParseLevel(name string) (lvl log.Lvl, ok bool) {
	switch strings.ToLower(name) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	default:
		return log.WARN, false
	}
}
