package main

import (
	"flag"
	"log"
	"os"

	"SwingLab/internal/di"
	"SwingLab/pkg/config"
	"SwingLab/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", server.ModeBacktest, "run mode: backtest or serve")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s period=%s..%s", cfg.Environment, *mode, cfg.Backtest.StartDate, cfg.Backtest.EndDate)

	app, err := di.InitializeApp(cfg, *mode)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
