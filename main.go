package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"phimtoc/api"
	"phimtoc/config"
	"phimtoc/handlers"
	"phimtoc/internal/localstore"
	"phimtoc/services/catalog"
	"phimtoc/services/favorites"
	"phimtoc/services/playback"
	"phimtoc/services/reviews"
	"phimtoc/services/trailers"
	"phimtoc/services/users"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 PhimTộc Backend Starting...")

	configPath := os.Getenv("PHIMTOC_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Local profile storage (favorites, reviews, accounts, trailer cache)
	store, err := localstore.Open(afero.NewOsFs(), settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}

	catalogClient := catalog.NewClient(settings.Catalog.BaseURL, nil)
	favoritesSvc := favorites.NewService(store)
	reviewsSvc := reviews.NewService(store)
	usersSvc := users.NewService(store)
	trailersSvc := trailers.NewService(store)

	catalogHandler := handlers.NewCatalogHandler(catalogClient, settings.Catalog.PageSize)
	homeHandler := handlers.NewHomeHandler(catalogClient, settings.Catalog.PageSize)
	playbackHandler := handlers.NewPlaybackHandler(
		catalogClient,
		playback.NewHTTPLoaderFactory(nil),
		settings.Playback.NativeHLS,
		time.Duration(settings.Playback.EmbedTimeoutSec)*time.Second,
	)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesSvc)
	reviewsHandler := handlers.NewReviewsHandler(reviewsSvc, usersSvc)
	usersHandler := handlers.NewUsersHandler(usersSvc)
	trailersHandler := handlers.NewTrailersHandler(trailersSvc)

	r := mux.NewRouter()
	api.Register(r,
		catalogHandler,
		homeHandler,
		playbackHandler,
		favoritesHandler,
		reviewsHandler,
		usersHandler,
		trailersHandler,
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Tear down playback sessions so manifest loaders are not leaked
	playbackHandler.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
