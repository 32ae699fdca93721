package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/leadgate/internal/adapters/http/api"
	app "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/config"
	logging "github.com/okian/leadgate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		_ = logging.Init()

		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("LEADGATE_ADDR", ":8080")
			_ = os.Setenv("LEADGATE_QUEUE_SIZE", "1000")
			_ = os.Setenv("LEADGATE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("LEADGATE_ADDR")
				_ = os.Unsetenv("LEADGATE_QUEUE_SIZE")
				_ = os.Unsetenv("LEADGATE_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithWorkerCount(8),
					app.WithQueueSize(2000),
					app.WithDedupeSize(1000),
					app.WithRegistrySize(500),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then HTTP server should be creatable", func() {
				server := api.NewServer(svc, svc, api.Config{})
				convey.So(server, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		_ = logging.Init()

		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing adapter construction from a bare config", func() {
			cfg := config.New()
			cfg.Redis.Addr = "" // no redis in tests

			convey.Convey("Then no adapters are enabled", func() {
				opts := buildAdapters(context.Background(), cfg, logging.Get())
				convey.So(len(opts), convey.ShouldEqual, 0)
			})
		})
	})
}
