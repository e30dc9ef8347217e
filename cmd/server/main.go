package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Tanvin-Ahmed/file-management-server/internal/conf"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/injector"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("config loaded", zap.String("path", *configFile), zap.String("blob_backend", string(config.Blob.Backend)))

	app, cleanup, err := injector.InitializeApp(config, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	go func() {
		if err := app.HTTPServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	if config.Server.GRPCPort > 0 {
		go func() {
			if err := app.GRPCServer.Start(); err != nil {
				log.Fatal("failed to start gRPC server", zap.Error(err))
			}
		}()
	}

	app.Reconciler.Start()
	log.Info("servers started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()
	app.Shutdown(ctx)

	log.Info("servers exited")
}
