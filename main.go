// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/pickstack/ranked/cliparse"
	"github.com/pickstack/ranked/db"
	"github.com/pickstack/ranked/logger"
	"github.com/pickstack/ranked/middleware"
	"github.com/pickstack/ranked/notify"
	"github.com/pickstack/ranked/router"
	"github.com/pickstack/ranked/scheduler"
	"github.com/pickstack/ranked/store"
)

func main() {
	// A missing .env is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("error parsing flags")
		os.Exit(1)
	}

	logger.Configure(cfg.LogLevel, cfg.LogFile)

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(); err != nil {
		log.Error().Err(err).Msg("database ping failed")
		os.Exit(1)
	}

	if err := db.CreateSchema(dbConn); err != nil {
		log.Error().Err(err).Msg("schema creation failed")
		os.Exit(1)
	}
	log.Info().Str("type", cfg.DatabaseType).Msg("database schema ready")

	s := store.New(dbConn)
	dispatcher := notify.NewWebhookDispatcher(log.Logger)

	sched := scheduler.New(s, dispatcher, cfg, log.Logger)
	sched.Start()
	defer sched.Stop()

	mux := router.NewRouter(s, cfg, sched, dispatcher)

	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		server.Close()
	}()

	log.Info().Int("port", cfg.Port).Dur("tick_interval", cfg.TickInterval).Msg("listening")
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server closed")
	} else {
		log.Info().Msg("server closed")
	}
}
