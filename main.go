package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicedesk/internal/bootstrap"
)

func main() {
	logger := log.New(os.Stderr, "voicedesk ", log.LstdFlags)

	app := NewApp(os.Stdout, logger)
	services, err := bootstrap.Build(app, logger)
	if err != nil {
		logger.Fatalf("startup failed: %v", err)
	}
	app.attach(services)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if services.Router != nil {
		addr := services.Config.HTTP.Addr
		go func() {
			if err := services.Router.Listen(addr); err != nil {
				logger.Printf("token service stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = services.Router.ShutdownWithContext(shutdownCtx)
		}()
		logger.Printf("token service listening on %s", addr)
	}

	if err := app.Run(ctx, os.Stdin); err != nil {
		logger.Printf("exited with error: %v", err)
	}
}
