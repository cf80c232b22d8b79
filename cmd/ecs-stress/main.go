package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a TOML config file. Defaults are used when empty.")
	duration := flag.Duration("duration", 0, "Overrides the run duration of the config.")
	spawnFile := flag.String("spawns", "", "Overrides the spawn table file of the config.")
	flag.Parse()

	cfg := defaults()
	if *configPath != "" {
		loaded, err := Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *duration > 0 {
		cfg.Run.Duration = *duration
	}
	if *spawnFile != "" {
		cfg.World.SpawnFile = *spawnFile
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	table := defaultSpawnTable()
	if cfg.World.SpawnFile != "" {
		if table, err = LoadSpawnTable(cfg.World.SpawnFile); err != nil {
			return err
		}
	}

	sim, err := newSimulation(cfg, table, log)
	if err != nil {
		return err
	}

	log.Info("populating world", zap.Int("entities", table.Total()), zap.Int("spawn_entries", len(table.Entries)))
	sim.populate()

	if p := startProfile(cfg.Profile); p != nil {
		log.Info("profiling", zap.String("mode", cfg.Profile.Mode), zap.String("path", cfg.Profile.Path))
		defer p.Stop()
	}

	log.Info("running simulation", zap.Duration("duration", cfg.Run.Duration), zap.Duration("tick_interval", cfg.Run.TickInterval))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()
	start := time.Now()
	report := sim.run(ctx)
	log.Info("simulation finished", zap.Duration("elapsed", time.Since(start)), zap.Int64("updates", report.TotalUpdates))

	sim.dispose()

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}
