package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/easy-qr-codes/internal/container"
	"github.com/serroba/easy-qr-codes/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *container.Options) {
		// The worker only makes sense against shared infrastructure; Validate rejects the memory store.
		opts.RenderQueue = container.QueueRedis

		if err := opts.Validate(); err != nil {
			panic(err)
		}

		injector := do.New()
		do.ProvideValue(injector, opts)
		container.LoggerPackage(injector)
		container.RedisPackage(injector)
		container.PostgresPackage(injector)
		container.RepositoryPackage(injector)
		container.RenderPackage(injector)
		container.MessagingPackage(injector)
		container.ServicePackage(injector)
		container.WorkerPackage(injector)

		logger := do.MustInvoke[*zap.Logger](injector)

		hooks.OnStart(func() {
			group := do.MustInvoke[*messaging.ConsumerGroup](injector)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if err := group.Start(ctx); err != nil {
				logger.Fatal("failed to start consumer group", zap.Error(err))
			}

			logger.Info("render worker started", zap.String("store", opts.Store))

			// Wait for shutdown signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			logger.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
