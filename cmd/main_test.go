package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/pacer/internal/app"
	"github.com/okian/pacer/internal/config"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/pkg/logger"
	"github.com/okian/pacer/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a loaded configuration", t, func() {
		cfg := config.New()

		convey.Convey("When no leads file is configured", func() {
			svc, err := newService(cfg)

			convey.Convey("Then the built-in table is used and augmentation is off", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Leads(), convey.ShouldHaveLength, len(leads.Default().All()))
				convey.So(svc.GetStats()["augmentation"], convey.ShouldEqual, false)
			})
		})

		convey.Convey("When a credential is present", func() {
			cfg.OpenAIAPIKey = "sk-test"
			svc, err := newService(cfg)

			convey.Convey("Then augmentation is enabled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.GetStats()["augmentation"], convey.ShouldEqual, true)
			})
		})

		convey.Convey("When a leads file overrides the table", func() {
			path := filepath.Join(t.TempDir(), "leads.yaml")
			doc := "leads:\n  - sport: hammer\n    athlete: Ewa Swoboda\n    metric: 82.98\n    unit: m\n    better: higher\n"
			convey.So(os.WriteFile(path, []byte(doc), 0o600), convey.ShouldBeNil)
			cfg.LeadsFile = path
			svc, err := newService(cfg)

			convey.Convey("Then only the file records are served", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Leads(), convey.ShouldHaveLength, 1)
				convey.So(svc.Leads()[0].Sport, convey.ShouldEqual, "hammer")
			})
		})

		convey.Convey("When the leads file is missing", func() {
			cfg.LeadsFile = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := newService(cfg)

			convey.Convey("Then startup fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHTTPServer(t *testing.T) {
	convey.Convey("Given the wired HTTP server", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := newService(cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := newHTTPServer(ctx, cfg, svc)

		convey.Convey("Then server timeouts leave room for augmentation", func() {
			convey.So(srv.Addr, convey.ShouldEqual, ":9080")
			convey.So(srv.WriteTimeout, convey.ShouldBeGreaterThan, cfg.AugmentTimeout()+awaitSlack)
		})

		convey.Convey("Then API and docs routes are mounted", func() {
			for _, path := range []string{"/healthz", "/stats", "/api/leads", "/api-docs", "/openapi.yaml"} {
				w := httptest.NewRecorder()
				srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then stats report the started service", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))
			var stats map[string]any
			convey.So(json.NewDecoder(w.Body).Decode(&stats), convey.ShouldBeNil)
			convey.So(stats["started"], convey.ShouldEqual, true)
			convey.So(stats["sports"], convey.ShouldEqual, 12.0)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free local port", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := ln.Addr().String()
		convey.So(ln.Close(), convey.ShouldBeNil)

		cfg := config.New()
		cfg.Addr = addr

		convey.Convey("When the server runs until canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg) }()

			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + addr + "/api/leads")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			cancel()

			convey.Convey("Then it served requests and shut down cleanly", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.Contains(string(body), "Neeraj Chopra"), convey.ShouldBeTrue)
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return after cancel")
				}
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric loops", t, func() {
		svc := service.New()

		convey.Convey("Then they stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then a manager on a private registry can be built", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
