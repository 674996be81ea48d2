package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tuneshelf/cache"
	"tuneshelf/config"
	"tuneshelf/core/ingest"
	"tuneshelf/db"
	"tuneshelf/logger"
	"tuneshelf/repository"
	"tuneshelf/storage"

	"github.com/gorilla/mux"
)

// Start initializes all components and runs the HTTP server until it
// receives SIGINT or SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer sqlDB.Close()

	if err := db.NewMigrator(sqlDB).Run(context.Background()); err != nil {
		logger.Fatal("Failed to run migrations", logger.ErrorField(err))
	}

	blobStore, err := newBlobStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize blob store", logger.ErrorField(err))
	}

	songCache := cache.NewSongCache(nil)
	if cfg.RedisAddr != "" {
		redisClient, err := cache.ConnectRedis(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
		}
		defer redisClient.Close()
		songCache = cache.NewSongCache(redisClient)
		logger.Info("Song list cache enabled", logger.String("redisAddr", cfg.RedisAddr))
	}

	songRepo := repository.NewMySQLSongRepository(sqlDB)
	ingestor := ingest.New(songRepo, blobStore)
	apiHandler := NewAPIHandler(songRepo, ingestor, songCache, cfg.MaxUploadBytes)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// API endpoints
	router.HandleFunc("/api/songs", apiHandler.GetSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/{id}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", apiHandler.UploadSongHandler).Methods(http.MethodPost)

	// Uploaded blobs
	router.PathPrefix(storage.ServePrefix).Handler(NewBlobHandler(blobStore))

	// Frontend UI
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.WebAppDir)))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

// newBlobStore selects the blob backend from the configuration.
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver == "minio" {
		return storage.NewMinioStore(context.Background(), cfg)
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

// corsMiddleware allows the browser client to call the API from another
// origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
