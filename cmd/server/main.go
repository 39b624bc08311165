package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"objectcatalog/app/catalog"
	"objectcatalog/app/categories"
	"objectcatalog/config"
	"objectcatalog/database"
	"objectcatalog/models"
)

func main() {
	log := logrus.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := database.New(cfg.DSN())
	if err != nil {
		log.WithError(err).Fatal("open database")
	}

	objectsRepo := models.NewObjectsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)

	catalogHandler := catalog.NewCatalogHandler(objectsRepo)
	categoryHandler := categories.NewCategoryHandler(categoriesRepo)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/objects", catalogHandler.HandleGet)
	mux.HandleFunc("GET /api/objects/{id}", catalogHandler.HandleGetObject)
	mux.HandleFunc("POST /api/objects", catalogHandler.HandleCreate)
	mux.HandleFunc("PUT /api/objects/{id}", catalogHandler.HandleUpdate)
	mux.HandleFunc("DELETE /api/objects/{id}", catalogHandler.HandleDelete)
	mux.HandleFunc("GET /api/categories", categoryHandler.HandleGetAll)

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}

	go func() {
		log.WithField("address", cfg.Address).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
