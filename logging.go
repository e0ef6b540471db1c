package main

import (
	"github.com/sirupsen/logrus"
)

const logDate = `2006-01-02T15:04:05.000-07:00`

func newLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: logDate,
	})
	if cfg.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
