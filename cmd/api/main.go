package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "chalet_booking/internal/adapters/http_server"
	"chalet_booking/internal/adapters/observability"
	redisad "chalet_booking/internal/adapters/redis"
	"chalet_booking/internal/app"
	"chalet_booking/internal/shared"
	mysqlrepo "chalet_booking/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	queries := app.NewQueryService(repo, repo, cache, cfg.CacheTTL)
	bookings := app.NewBookingService(repo, cache)
	imports := app.NewImportService(repo, repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:              queries,
		Bookings:       bookings,
		Imports:        imports,
		BookingLimiter: rate.NewLimiter(rate.Limit(cfg.BookingRateRPS), cfg.BookingRateRPS*2),
		ImportMaxBytes: cfg.ImportMaxBytes,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
