package config

import (
	"io"

	"github.com/NissanArmada/GazooRazoo/log"
)

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the logger described by LogFormat, LogLevel and
// LogFilter and installs it as default.
func SetupLogger(w io.Writer) (*log.Logger, error) {
	var logger *log.Logger
	switch LogFormat {
	case "json":
		logger = log.New(w,
			parseLogLevel(LogLevel, log.InfoLevel),
			log.WithCaller(true))
	default:
		logger = log.DevLogger(w,
			parseLogLevel(LogLevel, log.InfoLevel),
			log.WithCaller(true))
	}
	logger, err := logger.WithFilter(LogFilter)
	if err != nil {
		return nil, err
	}
	log.ResetDefault(logger)
	return logger, nil
}
