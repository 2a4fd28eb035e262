package mssqlconv

import (
	"fmt"
	"log"
	"strings"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logLevel LogLevel = LogLevelWarn

// SetLogLevel overrides logLevel for mssqlconv library, default is WARN
func SetLogLevel(lv LogLevel) {
	logLevel = lv
}

func logf(lv LogLevel, tag string, format string, v ...interface{}) {
	if logLevel <= lv {
		format = fmt.Sprintf("mssqlconv.%s: %s", tag, format)
		log.Printf(format, v...)
	}
}

func LogDebugf(format string, v ...interface{}) {
	logf(LogLevelDebug, "debug", format, v...)
}

func LogInfof(format string, v ...interface{}) {
	logf(LogLevelInfo, "info", format, v...)
}

func LogWarnf(format string, v ...interface{}) {
	logf(LogLevelWarn, "warn", format, v...)
}

func LogErrorf(format string, v ...interface{}) {
	logf(LogLevelError, "error", format, v...)
}

// ParseLogLevel parses "debug", "info", "warn" or "error".
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn", "warning", "":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelWarn, fmt.Errorf("unknown log level: %s", s)
	}
}
