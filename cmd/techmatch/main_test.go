package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/config"
	"github.com/okian/techmatch/pkg/logger"
)

func TestNewService(t *testing.T) {
	convey.Convey("Given configuration loaded from the environment", t, func() {
		_ = os.Setenv("TECHMATCH_NOTIFICATION_THRESHOLD", "0.75")
		_ = os.Setenv("TECHMATCH_DISPATCHER_COUNT", "2")
		defer func() {
			_ = os.Unsetenv("TECHMATCH_NOTIFICATION_THRESHOLD")
			_ = os.Unsetenv("TECHMATCH_DISPATCHER_COUNT")
		}()

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built from it", func() {
			svc := newService(cfg, logger.Nop())
			stats := svc.GetStats()

			convey.Convey("Then the settings reach the service", func() {
				convey.So(stats["threshold"], convey.ShouldEqual, 0.75)
				convey.So(stats["dispatchers"], convey.ShouldEqual, 2)
				convey.So(stats["requiredWeight"], convey.ShouldEqual, cfg.RequiredWeight)
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service and its mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		svc := newService(cfg, logger.Nop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, svc, cfg)

		for _, path := range []string{"/healthz", "/stats", "/api-docs", "/openapi.yaml", "/catalog/search?q="} {
			convey.Convey("When "+path+" is requested", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))

				convey.Convey("Then it answers 200", func() {
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				})
			})
		}
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background updaters", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then they return when the context ends", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, newService(config.New(), logger.Nop())) }, convey.ShouldNotPanic)
		})
	})
}
