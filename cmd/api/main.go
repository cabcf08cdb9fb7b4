package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskDeck/internal/app"
	"taskDeck/internal/config"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yml (по умолчанию ./config.yml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		return fmt.Errorf("инициализация приложения: %w", err)
	}
	return a.Run(ctx)
}
