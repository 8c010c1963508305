package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/Domornie/Lumina-Sheets-sub001/internal/config"
	appHTTP "github.com/Domornie/Lumina-Sheets-sub001/internal/handler/http"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/cache"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/clock"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/pkg/database"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/repository/postgresql"
	analyticsService "github.com/Domornie/Lumina-Sheets-sub001/internal/service/analytics"
	"github.com/Domornie/Lumina-Sheets-sub001/internal/service/export"
	ingestService "github.com/Domornie/Lumina-Sheets-sub001/internal/service/ingest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		fmt.Println("Error resolving timezone:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "lumina-analytics"),
	)
	clk := clock.System()

	var store cache.Store
	switch cfg.Cache.Backend {
	case "memory":
		store = cache.NewMemoryStore(clk, cfg.Cache.MaxValueSize)
	case "postgres":
		store = postgresql.NewKVCacheStore(db, cfg.Cache.MaxValueSize)
	default:
		log.Fatal("Unsupported cache backend: ", cfg.Cache.Backend)
	}
	blob := cache.NewBlob(store, clk, cfg.Cache.Version, cfg.Cache.ChunkSize, cfg.Cache.Freshness)

	rowStore := postgresql.NewRowStore(db)
	ingest := ingestService.NewService(
		rowStore,
		blob,
		clk,
		loc,
		logger,
		cfg.Engine.FetchChunkSize,
		cfg.Engine.ProcessingWindow,
		cfg.Cache.RowTTL,
	)
	analyticsSvc := analyticsService.NewAnalyticsService(
		ingest,
		blob,
		clk,
		loc,
		logger,
		cfg.Engine.ProcessingWindow,
		cfg.Engine.ScanBudget,
		cfg.Cache.AnalyticsTTL,
	)
	exportSvc := export.NewExportService(analyticsSvc)

	analyticsHandler := appHTTP.NewAnalyticsHandler(analyticsSvc, exportSvc)
	router := appHTTP.NewRouter(analyticsHandler, cfg.App.Env)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
