package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sandlot/internal/config"
)

var writer io.Writer = os.Stdout

// Writer returns the destination Init selected, so other log sinks
// (request logging, for one) can share the same output.
func Writer() io.Writer {
	return writer
}

// Init configures the global zerolog logger. It returns a close function
// that flushes the log file, if one was configured.
func Init(cfg config.LogConfig) (func(), error) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	closeFn := func() {}
	var output io.Writer = os.Stdout
	switch {
	case cfg.File != "":
		w, err := newSizeLimitedWriter(cfg.File, cfg.FileMaxMB)
		if err != nil {
			return nil, err
		}
		output = w
		closeFn = func() { _ = w.Close() }
	case cfg.Pretty:
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	writer = output
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return closeFn, nil
}
