package logging

import (
	"io"
	"os"
	"time"

	"github.com/Alejob60/meta-agent/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger from config. Outside
// production it writes human-readable console output; with a log file
// configured it also writes daily-rotated JSON files.
func Setup(cfg config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if os.Getenv("ENV") != "production" && cfg.Format != "json" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		writers = append(writers, os.Stderr)
	}

	if cfg.File != "" {
		rotator, err := rotatelogs.New(
			cfg.File+".%Y%m%d",
			rotatelogs.WithLinkName(cfg.File),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(7*24*time.Hour),
		)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.File).Msg("failed to open log file, logging to stderr only")
		} else {
			writers = append(writers, rotator)
		}
	}

	if len(writers) == 1 {
		log.Logger = log.Output(writers[0])
	} else {
		log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	}
}
