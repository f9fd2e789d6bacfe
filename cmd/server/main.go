package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"tinyhttp/routes"
	"tinyhttp/server"

	"github.com/rs/zerolog"
)

func main() {
	root := getProjectRoot()

	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := loadConfig(root, bootLog)
	log := newLogger(cfg)

	jokes := routes.NewJokeBook(cfg.JokesFile)
	if err := jokes.Reload(); err != nil {
		log.Warn().Err(err).Str("file", cfg.JokesFile).Msg("using built-in jokes")
	}

	if cfg.HotReload {
		if err := jokes.Watch(context.Background(), log.With().Str("component", "jokes").Logger()); err != nil {
			log.Warn().Err(err).Msg("hot reload disabled")
		} else {
			log.Info().Str("file", cfg.JokesFile).Msg("hot reload enabled")
		}
	}

	metrics := server.NewMetrics()
	hub := server.NewEventHub()

	srvLog := log.With().Str("component", "server").Logger()
	srv := server.New(routes.NewRouter(jokes), server.Options{
		ReadBufferSize: cfg.ReadBufferSize,
		Logger:         &srvLog,
		Metrics:        metrics,
		Events:         server.MultiSink(metrics, hub),
	})

	if cfg.AdminAddr != "" {
		adm := newAdmin(metrics, hub, jokes, []byte(os.Getenv("APP_JWT_SECRET")), log)
		go func() {
			log.Info().Str("addr", cfg.AdminAddr).Msg("admin server listening")
			if err := http.ListenAndServe(cfg.AdminAddr, adm.handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("admin server stopped")
			}
		}()
	}

	log.Info().
		Str("addr", cfg.Addr).
		Int("read_buffer_size", cfg.ReadBufferSize).
		Str("admin_addr", cfg.AdminAddr).
		Str("jokes_file", cfg.JokesFile).
		Bool("hot_reload", cfg.HotReload).
		Msg("tinyhttp starting")

	// runs until the process is killed
	if err := srv.ListenAndServe(cfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("error while binding the socket to the address")
	}
}
