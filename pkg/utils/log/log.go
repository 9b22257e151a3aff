package log

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

const (
	colorRed    = 31
	colorYellow = 33
	colorCyan   = 36
)

// GetLogger builds the logger used by every component. Error lines are always
// emitted; info lines only when verbose is set. When out is a terminal, lines
// are rendered as colorized "[Info] message" / "[Error] message"; otherwise
// structured zerolog output is written as-is.
func GetLogger(out io.Writer, isTerminal bool, verbose bool) zerolog.Logger {
	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(out).With().Timestamp().Logger().Level(level)

	if isTerminal {
		l = l.Output(consoleWriter(out))
	}

	return l
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:          out,
		PartsExclude: []string{zerolog.TimestampFieldName},
		FormatLevel:  formatLevel,
	}
}

// formatLevel renders the level part as a colorized "[Info]"-style tag.
func formatLevel(i interface{}) string {
	level, ok := i.(string)
	if !ok {
		return "[???]"
	}

	switch level {
	case zerolog.LevelInfoValue:
		return colorize("[Info]", colorCyan)
	case zerolog.LevelWarnValue:
		return colorize("[Warn]", colorYellow)
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return colorize("[Error]", colorRed)
	default:
		return "[" + level + "]"
	}
}

func colorize(s string, color int) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}
