// Package log provides a small leveled key-value logger writing to stderr.
// Command output (human-readable or JSON) goes to stdout; diagnostics go
// here, so that structured output stays machine-parseable.
package log

import (
	"fmt"
	stdlog "log"
	"os"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger   *stdlog.Logger
	initOnce sync.Once
	minLevel = LevelInfo
)

func initLogger() {
	initOnce.Do(func() {
		logger = stdlog.New(os.Stderr, "", stdlog.LstdFlags)
	})
}

// SetLevel adjusts the minimum level that will be emitted.
func SetLevel(l Level) {
	initLogger()
	minLevel = l
}

func Debug(msg string, kv ...any) {
	write(LevelDebug, msg, kv...)
}

func Info(msg string, kv ...any) {
	write(LevelInfo, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	write(LevelError, msg, append([]any{"err", err}, kv...)...)
}

func write(level Level, msg string, kv ...any) {
	initLogger()
	if !enabled(level) {
		return
	}
	line := "[" + string(level) + "] " + msg
	// kv comes as key, value, key, value, ...; a trailing odd arg is dropped.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		line += " " + key + "=" + fmt.Sprint(kv[i+1])
	}
	logger.Println(line)
}

func enabled(level Level) bool {
	switch minLevel {
	case LevelDebug:
		return true
	case LevelInfo:
		return level != LevelDebug
	case LevelError:
		return level == LevelError
	default:
		return true
	}
}
