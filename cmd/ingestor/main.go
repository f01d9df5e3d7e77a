package main

import (
	"context"
	"database/sql"
	"os"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"chalet_booking/internal/adapters/observability"
	redisad "chalet_booking/internal/adapters/redis"
	"chalet_booking/internal/adapters/spreadsheet"
	"chalet_booking/internal/app"
	"chalet_booking/internal/shared"
	mysqlrepo "chalet_booking/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	paths := os.Args[1:]
	if len(paths) == 0 {
		log.Fatal().Msg("usage: ingestor <workbook.xlsx> [more.xlsx ...]")
	}

	log.Info().
		Int("workbooks", len(paths)).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	imp := app.NewImportService(repo, repo, cache)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, path := range paths {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			grid, err := spreadsheet.OpenWorkbook(path)
			if err != nil {
				log.Warn().Str("path", path).Err(err).Msg("open workbook failed")
				return
			}
			parsed, err := spreadsheet.ParseGrid(grid)
			if err != nil {
				log.Warn().Str("path", path).Err(err).Msg("parse failed")
				return
			}
			summary, err := imp.Import(ctx, parsed.Nodes, parsed.Ranges)
			if err != nil {
				log.Warn().Str("path", path).Err(err).Msg("import failed")
				return
			}
			log.Info().
				Str("path", path).
				Int("imported", summary.Imported).
				Int("skipped_rows", parsed.SkippedRows).
				Strs("dropped_nodes", summary.DroppedNodes).
				Msg("import ok")
		}(path)
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
