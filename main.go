package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"careloop/app/api"
	"careloop/app/client/billing"
	"careloop/app/client/notifier"
	"careloop/app/config"
	"careloop/app/service/audit"
	"careloop/app/service/conversation"
	"careloop/app/service/engine"
	"careloop/app/service/intent"
	"careloop/app/service/queue"
	"careloop/app/service/signals"
	"careloop/app/service/store"
	"careloop/app/service/tools"
	"careloop/app/toolserver"
	"careloop/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.ProvideValue[signals.Provider](di, signals.NewCatalog())
	do.Provide(di, signals.New)
	do.Provide(di, intent.New)
	do.Provide(di, conversation.New)
	do.Provide(di, billing.New)
	do.Provide(di, notifier.New)
	do.Provide(di, tools.New)
	do.Provide(di, store.New)
	do.Provide(di, audit.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, api.New)
	do.Provide(di, toolserver.New)

	engineSvc, err := do.Invoke[*engine.Service](di)
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go engineSvc.Run(appCtx)

	if cfg.HTTP.Listen != "" {
		go do.MustInvoke[*api.Server](di).Run(appCtx)
	}

	if cfg.MCP.Enabled {
		go func() {
			if err := do.MustInvoke[*toolserver.Server](di).Serve(); err != nil {
				slog.Error("MCP server stopped", slog.Any("error", err))
			}
			cancel()
		}()
	}

	<-appCtx.Done()
}
