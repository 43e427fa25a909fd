package main

import (
	"flag"
	"log"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "net/http/pprof"

	"lintang/campusnav/pkg/config"
	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/engine"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/logger"
	"lintang/campusnav/pkg/server/rest"
	"lintang/campusnav/pkg/server/rest/service"
)

var (
	configFile = flag.String("config", "config.yaml", "file konfigurasi yaml")
	listenAddr = flag.String("listenaddr", "", "server listen address, override server.listen_addr")
)

//	@title			campusnav API
//	@version		1.0
//	@description	campus routing engine: A*/BFS shortest path, alternative routes, multi stop tour, nearby POI

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	var (
		kvDB    *kv.KVDB
		history service.KVDB
	)
	if cfg.Data.DBPath != "" {
		kvDB, err = kv.Open(cfg.Data.DBPath, nil, lg, cfg.Routing.Workers)
		if err != nil {
			lg.Fatal("failed to open pebble db", zap.Error(err))
		}
		defer kvDB.Close()
		kvDB.SetHistoryKeep(cfg.Data.HistoryKeep)
		history = kvDB
	}

	ds, err := loadDataset(cfg, kvDB, lg)
	if err != nil {
		lg.Fatal("failed to load road network", zap.Error(err))
	}

	eng := engine.New(cfg.EngineOptions(), lg)
	stats := eng.Load(ds)
	ds = nil
	runtime.GC()
	lg.Info("road network ready",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Int("dropped_edges", stats.DroppedEdges),
		zap.Int("pois", stats.POIs))

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	navigatorSvc := service.NewNavigationService(eng, history, lg)
	rest.NavigatorRouter(r, navigatorSvc, m, cfg.Routing.DefaultK)

	lg.Info("server started", zap.String("addr", cfg.Server.ListenAddr))
	if err := http.ListenAndServe(cfg.Server.ListenAddr, r); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

// loadDataset ambil network dari snapshot pebble kalau use_snapshot, kalau snapshot belum ada
// fallback ke file json lalu simpan snapshotnya.
func loadDataset(cfg config.Config, kvDB *kv.KVDB, lg *zap.Logger) (*dataset.Dataset, error) {
	if cfg.Data.UseSnapshot && kvDB != nil {
		ds, err := kvDB.LoadDataset()
		if err == nil {
			lg.Info("road network loaded from snapshot", zap.String("db", cfg.Data.DBPath))
			return ds, nil
		}
		lg.Warn("snapshot not available, reading json dataset", zap.Error(err))
	}

	ds, err := dataset.LoadDir(cfg.Data.Dir, cfg.DatasetFiles(), lg)
	if err != nil {
		return nil, err
	}
	if cfg.Data.UseSnapshot && kvDB != nil {
		if err := kvDB.SaveDataset(ds); err != nil {
			lg.Warn("failed to save snapshot", zap.Error(err))
		}
	}
	return ds, nil
}
