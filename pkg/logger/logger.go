package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Log zerolog.Logger

// Init initializes the global logger.
// development = pretty console, test = discarded, anything else = JSON.
func Init(env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch env {
	case "development":
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
			With().
			Timestamp().
			Caller().
			Logger()
	case "test":
		Log = zerolog.New(io.Discard)
	default:
		Log = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("service", "elearning-backend").
			Logger()
	}
}

func Info() *zerolog.Event {
	return Log.Info()
}

func Error() *zerolog.Event {
	return Log.Error()
}

func Warn() *zerolog.Event {
	return Log.Warn()
}

func Debug() *zerolog.Event {
	return Log.Debug()
}

func Fatal() *zerolog.Event {
	return Log.Fatal()
}
