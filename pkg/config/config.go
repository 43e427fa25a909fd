package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"lintang/campusnav/pkg/dataset"
	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/engine"
	"lintang/campusnav/pkg/engine/heuristics"
	"lintang/campusnav/pkg/snapping"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Routing RoutingConfig `yaml:"routing"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type DataConfig struct {
	Dir         string `yaml:"dir"`
	NodesFile   string `yaml:"nodes_file"`
	EdgesFile   string `yaml:"edges_file"`
	POIsFile    string `yaml:"pois_file"`
	DBPath      string `yaml:"db_path"`
	UseSnapshot bool   `yaml:"use_snapshot"`
	// HistoryKeep jumlah trip yang disimpan di pebble.
	HistoryKeep int `yaml:"history_keep"`
}

type RoutingConfig struct {
	ReferenceLatitude   float64   `yaml:"reference_latitude"`
	POICellSize         float64   `yaml:"poi_cell_size"`
	POINeighborhood     string    `yaml:"poi_neighborhood"`
	SnapThresholds      []float64 `yaml:"snap_thresholds"`
	SnapCandidates      int       `yaml:"snap_candidates"`
	DefaultK            int       `yaml:"default_k"`
	ExhaustiveStopLimit int       `yaml:"exhaustive_stop_limit"`
	Workers             int       `yaml:"workers"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	files := dataset.DefaultFiles()
	return Config{
		Server: ServerConfig{ListenAddr: ":5000"},
		Data: DataConfig{
			Dir:         "./data",
			NodesFile:   files.Nodes,
			EdgesFile:   files.Edges,
			POIsFile:    files.POIs,
			DBPath:      "./campusnav_db",
			HistoryKeep: 100,
		},
		Routing: RoutingConfig{
			POICellSize:         datastructure.DefaultPOICellSize,
			POINeighborhood:     string(datastructure.GridNeighborhood),
			SnapThresholds:      append([]float64(nil), snapping.DefaultThresholds...),
			SnapCandidates:      snapping.DefaultMaxCandidates,
			DefaultK:            3,
			ExhaustiveStopLimit: heuristics.DefaultExhaustiveStopLimit,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load baca file yaml. path kosong -> default. key yang tidak ada tetap pakai default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch datastructure.GridPolicy(c.Routing.POINeighborhood) {
	case datastructure.GridSingleCell, datastructure.GridNeighborhood:
	default:
		return fmt.Errorf("routing.poi_neighborhood must be %q or %q, got %q",
			datastructure.GridSingleCell, datastructure.GridNeighborhood, c.Routing.POINeighborhood)
	}
	if c.Routing.POICellSize <= 0 {
		return fmt.Errorf("routing.poi_cell_size must be positive")
	}
	for _, th := range c.Routing.SnapThresholds {
		if th <= 0 {
			return fmt.Errorf("routing.snap_thresholds must be positive, got %v", th)
		}
	}
	if c.Routing.DefaultK <= 0 {
		return fmt.Errorf("routing.default_k must be greater than zero")
	}
	return nil
}

func (c Config) DatasetFiles() dataset.Files {
	return dataset.Files{
		Nodes: c.Data.NodesFile,
		Edges: c.Data.EdgesFile,
		POIs:  c.Data.POIsFile,
	}
}

func (c Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.ReferenceLatitude = c.Routing.ReferenceLatitude
	opts.POICellSize = c.Routing.POICellSize
	opts.POIPolicy = datastructure.GridPolicy(c.Routing.POINeighborhood)
	if len(c.Routing.SnapThresholds) > 0 {
		opts.SnapThresholds = c.Routing.SnapThresholds
	}
	if c.Routing.SnapCandidates > 0 {
		opts.SnapCandidates = c.Routing.SnapCandidates
	}
	if c.Routing.ExhaustiveStopLimit > 0 {
		opts.ExhaustiveStopLimit = c.Routing.ExhaustiveStopLimit
	}
	if c.Routing.Workers > 0 {
		opts.Workers = c.Routing.Workers
	}
	return opts
}
