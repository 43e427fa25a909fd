package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"lintang/campusnav/pkg/config"
	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/kv"
	"lintang/campusnav/pkg/logger"
	"lintang/campusnav/pkg/osmparser"
)

var (
	configFile = flag.String("config", "config.yaml", "file konfigurasi yaml")
	mapFile    = flag.String("f", "campus.osm.pbf", "openstreetmap file buat road network graphnya")
	snapshot   = flag.Bool("snapshot", true, "simpan juga network ke pebble db")
)

func main() {
	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	f, err := os.Open(*mapFile)
	if err != nil {
		lg.Fatal("failed to open osm file", zap.String("file", *mapFile), zap.Error(err))
	}
	defer f.Close()

	parser := osmparser.NewOSMParser(lg, cfg.Routing.Workers, true)
	ds, err := parser.Parse(context.Background(), f)
	if err != nil {
		lg.Fatal("failed to parse osm file", zap.Error(err))
	}

	if err := dataset.WriteDir(cfg.Data.Dir, cfg.DatasetFiles(), ds); err != nil {
		lg.Fatal("failed to write dataset", zap.Error(err))
	}
	lg.Info("dataset written",
		zap.String("dir", cfg.Data.Dir),
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("edges", len(ds.Edges)),
		zap.Int("pois", len(ds.POIs)))

	if !*snapshot || cfg.Data.DBPath == "" {
		return
	}
	kvDB, err := kv.Open(cfg.Data.DBPath, nil, lg, cfg.Routing.Workers)
	if err != nil {
		lg.Fatal("failed to open pebble db", zap.Error(err))
	}
	defer kvDB.Close()
	kvDB.SetShowProgress(true)
	if err := kvDB.SaveDataset(ds); err != nil {
		lg.Fatal("failed to save snapshot", zap.Error(err))
	}
	lg.Info("snapshot saved", zap.String("db", cfg.Data.DBPath))
}
