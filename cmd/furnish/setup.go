package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/phanxgames/furnish"
	"github.com/phanxgames/furnish/config"
	"github.com/phanxgames/furnish/gltfload"
)

// app bundles what every subcommand builds from the config file.
type app struct {
	cfg     *config.File
	log     zerolog.Logger
	catalog *furnish.Catalog
}

func setup(v *viper.Viper) (*app, error) {
	cfg, err := config.Read(v, configPath)
	if err != nil {
		return nil, err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(lvl).With().Timestamp().Logger()

	loader := gltfload.New(cfg.ModelRoot)
	loader.Log = log.With().Str("component", "gltf").Logger()

	cat := furnish.NewCatalog(loader)
	cat.SetLogger(log.With().Str("component", "catalog").Logger())
	if err := cfg.Register(cat); err != nil {
		return nil, err
	}
	log.Info().Str("config", configPath).Str("models", cfg.ModelRoot).
		Int("items", len(cat.Items())).Msg("catalog registered")
	return &app{cfg: cfg, log: log, catalog: cat}, nil
}

// newSession builds a session and a gesture controller wired to the app's
// logger and to an event log.
func (a *app) newSession() (*furnish.Session, *furnish.GestureController) {
	events := eventLog{log: a.log.With().Str("component", "events").Logger()}

	s := furnish.NewSession(a.catalog, a.cfg.SessionConfig())
	s.SetLogger(a.log.With().Str("component", "session").Logger())
	s.SetEventStore(events)

	g := furnish.NewGestureController(s, a.cfg.GestureConfig())
	g.SetLogger(a.log.With().Str("component", "gesture").Logger())
	g.SetEventStore(events)
	return s, g
}

// preload warms the template cache so the first selections are instant.
func (a *app) preload(ctx context.Context) int {
	n, err := a.catalog.Preload(ctx, a.cfg.PreloadLimit)
	if err != nil {
		a.log.Warn().Err(err).Msg("preload interrupted")
	}
	return n
}

// eventLog is an EventStore that writes each placement event to the log.
type eventLog struct {
	log zerolog.Logger
}

func (e eventLog) EmitEvent(ev furnish.PlacementEvent) {
	entry := e.log.Debug()
	if ev.Type == furnish.EventLoadFailed {
		entry = e.log.Error().Err(ev.Err)
	}
	entry.Stringer("event", ev.Type).
		Str("item", string(ev.Item)).
		Uint32("placement", ev.PlacementID).
		Floats64("position", ev.Position[:]).
		Float64("scale", ev.Scale[0]).
		Msg("placement event")
}
