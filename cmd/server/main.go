package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/yungbote/hotel-reservation-prediction/internal/config"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/envutil"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/shutdown"
	"github.com/yungbote/hotel-reservation-prediction/internal/serving/app"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(envutil.String("LOG_MODE", cfg.Logging.Mode))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", "error", err)
		log.Sync()
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		log.Error("server exited", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
