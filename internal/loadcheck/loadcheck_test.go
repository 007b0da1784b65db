package loadcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/trackrank/internal/adapters/http/api"
	"github.com/okian/trackrank/internal/adapters/repository"
	service "github.com/okian/trackrank/internal/app"
	"github.com/okian/trackrank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const fixture = "../adapters/repository/testdata/fixture.yaml"

func init() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		panic(err)
	}
}

// newServer runs the real API over the fixture corpus.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	store, err := repository.OpenMemory(ctx, fixture, repository.WithMetricsUpdateInterval(0))
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(store, service.WithWorkerCount(2))
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL: baseURL,
		Probes:  12,
		Workers: 3,
		Timeout: 5 * time.Second,
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running service over the fixture", t, func() {
		srv := newServer(t)
		config := testConfig(srv.URL)
		config.OutputFile = filepath.Join(t.TempDir(), "out", "outcomes.json")

		convey.Convey("When the load check runs", func() {
			stats, err := Run(context.Background(), config)

			convey.Convey("Then every probe should be answered consistently", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.ProbesGenerated, convey.ShouldEqual, 12)
				convey.So(stats.ProbesSent, convey.ShouldEqual, 12)
				convey.So(stats.ProbesOK, convey.ShouldEqual, 12)
				convey.So(stats.Mismatches, convey.ShouldEqual, 0)
			})

			convey.Convey("And the outcomes should be saved", func() {
				_, statErr := os.Stat(config.OutputFile)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestGenerateProbes(t *testing.T) {
	convey.Convey("Given a running service over the fixture", t, func() {
		srv := newServer(t)
		config := testConfig(srv.URL)
		config.Probes = 40

		convey.Convey("When probes are generated", func() {
			stats := &Stats{}
			probes, err := generateProbes(context.Background(), config, stats)

			convey.Convey("Then they should cover the latest season round-robin", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(probes), convey.ShouldEqual, 40)
				convey.So(stats.ProbesGenerated, convey.ShouldEqual, 40)
				for _, p := range probes {
					convey.So(p.Year, convey.ShouldEqual, probes[0].Year)
					convey.So(p.Value, convey.ShouldNotBeEmpty)
				}
				convey.So(probes[0].Event == probes[1].Event && probes[0].Gender == probes[1].Gender, convey.ShouldBeFalse)
			})
		})
	})

	convey.Convey("Given a service with no seasons", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"years":[]}`))
		}))
		defer srv.Close()

		convey.Convey("When probes are generated", func() {
			_, err := generateProbes(context.Background(), testConfig(srv.URL), &Stats{})

			convey.Convey("Then it should report no data", func() {
				convey.So(errors.Is(err, ErrNoData), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCheckServiceHealth(t *testing.T) {
	convey.Convey("Given an unhealthy service", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		convey.Convey("When the load check runs", func() {
			_, err := Run(context.Background(), testConfig(srv.URL))

			convey.Convey("Then it should fail the health check", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
			})
		})
	})
}

func TestVerifyOutcomes(t *testing.T) {
	convey.Convey("Given probe outcomes", t, func() {
		ctx := context.Background()
		probe := Probe{Event: "100 Meters", Value: "11.00"}

		convey.Convey("When every answer echoes its mark", func() {
			stats := &Stats{}
			err := verifyOutcomes(ctx, []Outcome{{Probe: probe, Display: "11.00", OverallLabel: "3rd"}}, stats)

			convey.Convey("Then verification passes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Mismatches, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When an answer reformats the mark", func() {
			stats := &Stats{}
			err := verifyOutcomes(ctx, []Outcome{{Probe: probe, Display: "11.0", OverallLabel: "3rd"}}, stats)

			convey.Convey("Then it is counted as a mismatch", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stats.Mismatches, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When an answer has no placement", func() {
			stats := &Stats{}
			err := verifyOutcomes(ctx, []Outcome{{Probe: probe, Display: "11.00"}}, stats)

			convey.Convey("Then it is counted as a mismatch", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stats.Mismatches, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a probe failed in transport", func() {
			stats := &Stats{}
			err := verifyOutcomes(ctx, []Outcome{{Probe: probe, Error: "status 500"}}, stats)

			convey.Convey("Then it is not a mismatch", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Mismatches, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When there are no outcomes", func() {
			convey.So(verifyOutcomes(ctx, nil, &Stats{}), convey.ShouldNotBeNil)
		})
	})
}
