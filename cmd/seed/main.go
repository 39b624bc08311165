package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"objectcatalog/config"
	"objectcatalog/database"
	"objectcatalog/seeder"
)

func main() {
	objects := flag.Int("objects", 1_000_000, "number of objects to seed")
	categories := flag.Int("categories", 50, "number of categories to seed")
	flag.Parse()

	log := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	// Make sure the schema exists before bulk loading into it.
	gdb, err := database.New(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("prepare schema")
	}
	if pool, err := gdb.DB(); err == nil {
		pool.Close()
	}

	// The loader drives the COPY protocol over a dedicated lib/pq connection,
	// separate from the ORM's pool.
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("ping database")
	}

	if err := seeder.New(db, nil, log).Run(ctx, *objects, *categories); err != nil {
		log.WithError(err).Fatal("seeding aborted")
	}
}
