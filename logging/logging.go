// Package logging monta o logger zerolog do processo.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New cria o logger: JSON por padrão, console legível com format=text.
// Níveis: debug, info, warn, error (desconhecido vira info).
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "text" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
