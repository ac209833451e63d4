package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/profileviewer-go/internal/api"
	"github.com/jengzang/profileviewer-go/internal/config"
	"github.com/jengzang/profileviewer-go/internal/database"
	"github.com/jengzang/profileviewer-go/internal/repository"
	"github.com/jengzang/profileviewer-go/internal/service"
	"github.com/jengzang/profileviewer-go/internal/source"
	"github.com/jengzang/profileviewer-go/internal/spatial"
)

func main() {
	// 加载配置
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 数据源
	src, err := openSource(cfg)
	if err != nil {
		log.Fatal("Failed to open data source:", err)
	}
	defer database.Close()

	regions, err := spatial.LoadRegions(cfg.RegionsFile)
	if err != nil {
		log.Fatal("Failed to load regions:", err)
	}

	dashboards := service.NewDashboardService(src, service.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL), service.DashboardOptions{
		Regions:      regions,
		TopK:         cfg.TopK,
		MaxZoom:      cfg.MaxZoom,
		IconBase:     cfg.IconBase,
		FetchTimeout: cfg.FetchTimeout,
	})
	go dashboards.RunReaper(ctx, time.Minute)

	// 初始化路由
	router := api.SetupRouter(ctx, cfg, dashboards)
	srv := &http.Server{Addr: cfg.Port, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
	}()

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
}

// openSource prefers the HTTP check-in service and falls back to a
// read-only SQLite export
func openSource(cfg *config.Config) (source.Source, error) {
	if cfg.DataSourceURL != "" {
		s := source.NewHTTPSource(cfg.DataSourceURL, &http.Client{Timeout: cfg.FetchTimeout})
		s.Param = cfg.SubjectParam
		log.Printf("Reading check-ins from %s (?%s=)", cfg.DataSourceURL, s.Param)
		return s, nil
	}
	if cfg.DBPath == "" {
		return nil, errors.New("set DATA_SOURCE_URL or DB_PATH")
	}

	if err := database.Init(database.Config{Path: cfg.DBPath, ReadOnly: true}); err != nil {
		return nil, err
	}
	repo := repository.NewCheckinRepository(database.GetDB())
	return source.NewSQLiteSource(cfg.DBPath, repo), nil
}
