package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hadz2009/buspro-ac/internal/app"
	"github.com/Hadz2009/buspro-ac/internal/catalog"
	"github.com/Hadz2009/buspro-ac/internal/config"
	"github.com/Hadz2009/buspro-ac/internal/gateway"
	"github.com/Hadz2009/buspro-ac/internal/metrics"
	"github.com/Hadz2009/buspro-ac/internal/protocol"
	"github.com/Hadz2009/buspro-ac/internal/state"
)

var (
	configPath       string
	logLevelOverride string
)

// engine bundles everything a subcommand needs: configuration, the
// discovered layout, routing, transport, and state.
type engine struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	layout   *protocol.FieldLayout
	router   *gateway.Router
	sender   *gateway.Sender
	store    *state.Store
	counters *metrics.Counters
	log      zerolog.Logger
}

func newLogger(level string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("log level %q: %w", level, err)
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger(), nil
}

// loadEngine reads the config, loads and discovers the catalog, and
// opens the send path.
func loadEngine() (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	log, err := newLogger(level)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	layout, err := cat.Layout()
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("catalog", cfg.Catalog).
		Int("frame_len", layout.FrameLen()).
		Bool("fan_speed", layout.HasFanSpeed()).
		Bool("status_request", layout.HasStatusRequest()).
		Msg("catalog discovered")

	sender, err := gateway.NewSender(log)
	if err != nil {
		return nil, err
	}

	return &engine{
		cfg:      cfg,
		catalog:  cat,
		layout:   layout,
		router:   gateway.NewRouter(cfg.RoutingTable()),
		sender:   sender,
		store:    state.NewStore(),
		counters: &metrics.Counters{},
		log:      log,
	}, nil
}

func (e *engine) Close() {
	e.sender.Close()
}

func (e *engine) controller() *app.Controller {
	return app.NewController(e.layout, e.router, e.sender, e.store, e.counters, e.log)
}

// newSink opens the external event sink, or a no-op when none is
// configured.
func (e *engine) newSink() (state.Sink, error) {
	if e.cfg.NATSURL == "" {
		return state.NopSink{}, nil
	}
	sink, err := state.NewNATSSink(e.cfg.NATSURL, e.log)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("url", e.cfg.NATSURL).Msg("nats sink connected")
	return sink, nil
}
