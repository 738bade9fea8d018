package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Production writes plain JSON lines; every
// other environment gets the colored console writer at debug level.
func New(environment string, component string) zerolog.Logger {
	var output io.Writer = os.Stdout
	if environment != "production" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("env", environment).
		Str("component", component).
		Logger()

	zerolog.SetGlobalLevel(levelFor(environment))
	return logger
}

func levelFor(environment string) zerolog.Level {
	switch strings.ToLower(environment) {
	case "production":
		return zerolog.InfoLevel
	case "test":
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}
