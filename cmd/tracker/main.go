package main

import (
	"os"

	"itemtrack/internal/backup"
	"itemtrack/internal/config"
	"itemtrack/internal/database"
	"itemtrack/internal/report"
	"itemtrack/internal/session"
	"itemtrack/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Backup the data file before anything opens it.
	if path, err := backup.Run(cfg.DBPath, cfg.BackupDir); err != nil {
		log.WithError(err).Warn("database backup failed")
	} else if path != "" {
		log.WithField("path", path).Info("database backed up")
	}

	database.Init(cfg)

	st := store.New(database.DB, store.Options{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     log,
	})
	q := report.NewQuery(database.DB)

	session.New(st, q, os.Stdin, os.Stdout, log).Run()
}
