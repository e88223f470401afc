// Command knxipmon watches a KNXnet/IP routing multicast group.
//
// Every datagram is decoded and stored in the SQLite capture database.
// MQTT topics, InfluxDB metrics and the HTTP/WebSocket API are enabled
// per config section.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p0l0/xknx/internal/api"
	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/database"
	"github.com/p0l0/xknx/internal/infrastructure/influxdb"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
	"github.com/p0l0/xknx/internal/infrastructure/mqtt"
	"github.com/p0l0/xknx/internal/monitor"
	"github.com/p0l0/xknx/migrations"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	serviceName       = "knxipmon"
	defaultConfigPath = "configs/config.yaml"
	retentionInterval = time.Hour
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "knxipmon: %v\n", err)
		os.Exit(1)
	}
}

// shutdown runs cleanups in reverse registration order.
type shutdown struct {
	log   *logging.Logger
	steps []shutdownStep
}

type shutdownStep struct {
	name  string
	close func() error
}

func (s *shutdown) add(name string, fn func() error) {
	s.steps = append(s.steps, shutdownStep{name: name, close: fn})
}

func (s *shutdown) run() {
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		s.log.Info("closing", "component", step.name)
		if err := step.close(); err != nil {
			s.log.Error("close failed", "component", step.name, "error", err)
		}
	}
}

// app holds what the optional components add to the pipeline.
type app struct {
	cfg    *config.Config
	log    *logging.Logger
	down   *shutdown
	sinks  []monitor.Sink
	health map[string]api.HealthChecker
}

func run(ctx context.Context) error {
	cfg, source, err := loadConfig()
	if err != nil {
		logging.Default(serviceName).Error("config rejected", "error", err)
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, serviceName, version)
	log.Info("starting", "version", version, "commit", commit, "build_date", date, "config", source)

	a := &app{
		cfg:    cfg,
		log:    log,
		down:   &shutdown{log: log},
		health: make(map[string]api.HealthChecker),
	}
	defer a.down.run()

	repo, addresses, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	if err := a.connectMQTT(); err != nil {
		return err
	}
	if err := a.connectInfluxDB(); err != nil {
		return err
	}

	stats := monitor.NewStats()
	if err := a.startAPI(ctx, repo, addresses, stats); err != nil {
		return err
	}

	receiver := monitor.NewReceiver(cfg.Monitor, cfg.MulticastGroup(), log.With("component", "receiver"))
	if err := receiver.Start(ctx); err != nil {
		return fmt.Errorf("starting receiver: %w", err)
	}
	a.down.add("receiver", func() error { receiver.Stop(); return nil })
	log.Info("listening", "group", cfg.MulticastGroup().String(), "interfaces", receiver.Interfaces())

	go monitor.RunRetention(ctx, repo, cfg.Retention(), retentionInterval, log.With("component", "retention"))

	pipeline := monitor.NewPipeline(log, stats, a.sinks...)
	if types := cfg.GroupTypes(); len(types) > 0 {
		pipeline.SetGroupTypes(types)
		log.Info("group value decoding enabled", "addresses", len(types))
	}
	pipeline.Run(ctx, receiver, time.Duration(cfg.Monitor.StatsInterval)*time.Second)

	log.Info("stopped", "frames", stats.Snapshot().Total())
	return nil
}

// openStorage opens and migrates the capture database and starts the
// address recorder. Both are always on.
func (a *app) openStorage(ctx context.Context) (*capture.SQLiteRepository, *capture.AddressRecorder, error) {
	db, err := database.Open(a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	a.down.add("database", db.Close)

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	a.health["database"] = db
	a.log.Info("database ready", "path", db.Path())

	repo := capture.NewSQLiteRepository(db.DB)
	addresses := capture.NewAddressRecorder(db.DB, a.log.With("component", "addresses"))
	if err := addresses.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("starting address recorder: %w", err)
	}
	a.down.add("addresses", func() error { addresses.Stop(); return nil })

	a.sinks = append(a.sinks, monitor.NewCaptureSink(repo), monitor.NewAddressSink(addresses))
	return repo, addresses, nil
}

func (a *app) connectMQTT() error {
	if !a.cfg.MQTT.Enabled {
		a.log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(a.cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	a.down.add("mqtt", client.Close)

	client.SetOnConnect(func() { a.log.Info("MQTT reconnected") })
	client.SetOnDisconnect(func(err error) { a.log.Warn("MQTT disconnected", "error", err) })
	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", a.cfg.MQTT.Broker.Host, a.cfg.MQTT.Broker.Port),
		"prefix", client.Topics().Prefix(),
	)

	a.health["mqtt"] = client
	a.sinks = append(a.sinks, monitor.NewMQTTSink(client, client.Topics()))
	return nil
}

func (a *app) connectInfluxDB() error {
	client, err := influxdb.Connect(a.cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		a.log.Info("InfluxDB disabled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	a.down.add("influxdb", client.Close)

	client.SetOnError(func(err error) { a.log.Error("InfluxDB write error", "error", err) })
	a.log.Info("InfluxDB connected", "url", a.cfg.InfluxDB.URL, "bucket", a.cfg.InfluxDB.Bucket)

	a.health["influxdb"] = client
	a.sinks = append(a.sinks, monitor.NewMetricsSink(client))
	return nil
}

// startAPI serves the HTTP API and the WebSocket frame stream. Health
// checkers registered so far are reported by /health.
func (a *app) startAPI(ctx context.Context, repo *capture.SQLiteRepository, addresses *capture.AddressRecorder, stats *monitor.Stats) error {
	if !a.cfg.API.Enabled {
		a.log.Info("API disabled")
		return nil
	}

	hub := api.NewHub(a.cfg.WebSocket, a.log.With("component", "websocket"))
	go hub.Run(ctx)
	a.sinks = append(a.sinks, monitor.NewBroadcastSink(hub))

	server, err := api.New(api.Deps{
		Config:     a.cfg.API,
		WS:         a.cfg.WebSocket,
		Logger:     a.log.With("component", "api"),
		Captures:   repo,
		Stats:      stats,
		Health:     a.health,
		Hub:        hub,
		Version:    version,
		GroupTypes: a.cfg.GroupTypes(),
		Addresses:  addresses,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	a.down.add("api", server.Close)
	return nil
}

// loadConfig reads KNXIP_CONFIG, then the default path if it exists, then
// falls back to built-in defaults.
func loadConfig() (*config.Config, string, error) {
	path := os.Getenv("KNXIP_CONFIG")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err != nil {
			cfg, err := config.Default()
			return cfg, "(defaults)", err
		}
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	return cfg, path, err
}
