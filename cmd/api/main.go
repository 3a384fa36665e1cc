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

	"github.com/emilythestrangee/dcplaces/backend/internal/cache"
	"github.com/emilythestrangee/dcplaces/backend/internal/config"
	"github.com/emilythestrangee/dcplaces/backend/internal/database"
	"github.com/emilythestrangee/dcplaces/backend/internal/handlers"
	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/repository"
	"github.com/emilythestrangee/dcplaces/backend/internal/server"
	"github.com/emilythestrangee/dcplaces/backend/internal/storage"
)

func main() {
	cfg := config.Load()
	logs.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logs.WithError(err).Fatal("Invalid configuration")
	}

	db, err := database.New(cfg.DSN())
	if err != nil {
		logs.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	rc, err := cache.NewClient(cfg.Redis.URL)
	if err != nil {
		logs.WithError(err).Fatal("Invalid REDIS_URL")
	}
	if rc != nil {
		defer rc.Close()
	}

	var uploader storage.Uploader
	s3, err := storage.NewS3Uploader(context.Background(), cfg.S3)
	if err != nil {
		logs.WithError(err).Fatal("Failed to initialize S3")
	}
	if s3 != nil {
		uploader = s3
	}

	posts := repository.NewCachedPosts(repository.NewPosts(db.GetDB()), rc, cfg.Redis.ListTTL)
	comments := repository.NewComments(db.GetDB())
	auth := identity.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Timeout)

	srv := server.NewServer(cfg, db, handlers.NewHandler(auth, posts, comments, uploader))

	go func() {
		logs.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"cache":   rc != nil,
			"uploads": uploader != nil,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logs.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logs.WithError(err).Error("Server forced to shutdown")
	}
}
