package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/wayfind/internal/assist"
	"github.com/jask/wayfind/internal/bus"
	"github.com/jask/wayfind/internal/config"
	"github.com/jask/wayfind/internal/events"
	"github.com/jask/wayfind/internal/logging"
	"github.com/jask/wayfind/internal/store"
	"github.com/jask/wayfind/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	for _, dir := range []string{filepath.Dir(cfg.Log.Path), filepath.Dir(cfg.Database.Path)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	logger, closeLog, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer closeLog()

	if err := store.RunMigrations(cfg.Database.Path, "internal/store/migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	st := store.New(db)
	b := bus.New(logger)

	engine := assist.NewEngine(ctx, assist.Options{
		TickInterval: cfg.Engine.TickInterval(),
		MessagePause: cfg.Engine.MessagePause(),
		Log:          logger,
		MessageLog:   st,
	})
	engine.SetDismiss(assist.NewDismissManager(cfg.Engine.DismissDelay(), engine.Idle, engine.Hide))

	// The welcome flow attaches first so a skip latches before the
	// selection coordinator reacts to the same event.
	welcome := assist.NewWelcome(engine, st, cfg.UI.AssistantName, logger)
	welcome.Attach(b)
	assist.NewSelectionCoordinator(engine, cfg.UI.ShowEmoji, logger).Attach(b)
	assist.NewNarrator(engine, cfg.UI.ShowEmoji, logger).Attach(b)

	app := tui.New(ctx, cfg, b, st, demoMarkers())
	p := tea.NewProgram(app, tea.WithAltScreen())

	engine.OnChange(func(v assist.View) {
		p.Send(tui.AssistViewMsg{View: v})
	})

	welcome.Start(ctx)

	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// demoMarkers stands in for a live map feed.
func demoMarkers() []events.Item {
	return []events.Item{
		{ID: "m1", Type: "cafe", Title: "Cafe Luna", DistanceKm: 0.4, WalkMinutes: 5},
		{ID: "m2", Type: "park", Title: "Riverside Park", DistanceKm: 1.1, WalkMinutes: 14},
		{ID: "m3", Type: "museum", Title: "City Museum", DistanceKm: 2.3, WalkMinutes: 28},
		{ID: "m4", Type: "cafe", Title: "Lunar Beans", DistanceKm: 0.9, WalkMinutes: 11},
		{ID: "m5", Type: "restaurant", Title: "The Blue Door", DistanceKm: 1.6},
	}
}
