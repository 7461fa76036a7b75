package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wildcats/cache"
	"wildcats/config"
	"wildcats/db"
	"wildcats/logger"
	"wildcats/repository"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册所有路由
func NewRouter(repo repository.PlaylistRepository, conn *sql.DB) *mux.Router {
	h := NewPlaylistHandler(repo)

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, corsMiddleware, loggingMiddleware)

	// 预检请求要先匹配到路由中间件才会执行，所以每条 API 路由都接受 OPTIONS，
	// 应答由 corsMiddleware 直接写出
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/playlists", h.ListPlaylists).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/playlists", h.CreatePlaylist).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.GetPlaylist).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.UpdatePlaylist).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/playlists/{id:[0-9]+}", h.DeletePlaylist).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/playlists/{id:[0-9]+}/songs", h.AddSong).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/playlists/{id:[0-9]+}/songs/{songId:-?[0-9]+}", h.RemoveSong).Methods(http.MethodDelete, http.MethodOptions)

	router.HandleFunc("/healthz", healthHandler(conn)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func healthHandler(conn *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if conn != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := conn.PingContext(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Start initializes and starts the HTTP server, blocking until SIGINT/SIGTERM.
func Start(cfg *config.Config) error {
	ctx := context.Background()

	conn, err := db.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.InitDB(ctx, conn); err != nil {
		return err
	}

	var repo repository.PlaylistRepository = repository.NewMySQLPlaylistRepository(conn)

	if cfg.RedisEnabled {
		var client *redis.Client
		client, err = cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		repo = cache.NewPlaylistCache(repo, client, cfg.CacheTTL)
	}
	logger.Info("Playlist store ready",
		logger.Bool("redisEnabled", cfg.RedisEnabled),
		logger.Duration("cacheTTL", cfg.CacheTTL))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(repo, conn),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down server", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
