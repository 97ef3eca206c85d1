// Command monitord runs the satellite-receiver telemetry server: the
// HTTP collect/status/metrics endpoints, the periodic classifier and
// aggregation pass, and alert delivery over SMTP.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/othernet-project/monitoring/pkg/config"
	"github.com/othernet-project/monitoring/pkg/geoip"
	"github.com/othernet-project/monitoring/pkg/ingest"
	"github.com/othernet-project/monitoring/pkg/mailer"
	"github.com/othernet-project/monitoring/pkg/report"
	"github.com/othernet-project/monitoring/pkg/scheduler"
	"github.com/othernet-project/monitoring/pkg/storage"
	"github.com/othernet-project/monitoring/pkg/storage/memstore"
	"github.com/othernet-project/monitoring/pkg/storage/sqlstore"
	"github.com/othernet-project/monitoring/pkg/telemetry"
	"github.com/othernet-project/monitoring/pkg/transport/httpapi"
)

func main() {
	configPath := pflag.StringP("config", "c", "/etc/monitoring/monitord.ini", "Path to the ini configuration file.")
	storageDriver := pflag.String("storage-driver", "", "database/sql driver name to open storage.dsn with. Empty uses an in-memory store.")
	verbose := pflag.BoolP("verbose", "v", false, "Enable debug-level logging.")
	pflag.Parse()

	logger := log.StandardLogger()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("loading configuration failed")
	}

	store, err := openStore(*storageDriver, cfg.StorageDSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("opening storage backend failed")
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)

	pipeline := ingest.New(store, logger, metrics)
	aggregator := report.NewAggregator()
	mailClient := mailer.NewClient(cfg.EmailHost, cfg.EmailPort, cfg.EmailSecure, cfg.EmailUsername, cfg.EmailPassword)

	var geo geoip.Lookup = geoip.Static{}

	lastReport := newStatusPublisher()
	server := httpapi.New(pipeline, geo, lastReport, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := scheduler.New(cfg.ReportingInterval, func(ctx context.Context, now time.Time) {
		runPass(ctx, store, aggregator, mailClient, cfg, lastReport, metrics, logger, now)
	}, logger)
	go loop.Run(ctx)

	httpServer := &http.Server{Addr: cfg.HTTPListenAddr, Handler: server}
	go func() {
		logger.WithField("addr", cfg.HTTPListenAddr).Info("serving heartbeat collection endpoint")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("http server stopped unexpectedly")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}
}

func openStore(driver, dsn string, logger *log.Logger) (storage.Store, error) {
	if driver == "" {
		logger.Info("no --storage-driver given, using an in-memory store")
		return memstore.New(), nil
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return sqlstore.New(db, logger), nil
}

func runPass(ctx context.Context, store storage.Store, aggregator *report.Aggregator, mailClient *mailer.Client, cfg *config.Config, lastReport *statusPublisher, metrics *telemetry.Metrics, logger *log.Logger, now time.Time) {
	timer := prometheus.NewTimer(metrics.ClassifierPassSecs)
	defer timer.ObserveDuration()

	since := now.Add(-cfg.DatapointsInterval)
	rows, err := store.SelectWindow(ctx, since)
	if err != nil {
		metrics.PersistenceErrors.Inc()
		logger.WithError(err).Error("selecting classifier working set failed")
		return
	}

	alerts, dashboard := aggregator.Pass(rows, now)
	lastReport.set(dashboard)

	for _, alert := range alerts {
		metrics.AlertsEmitted.WithLabelValues(string(alert.Status)).Inc()
		subject := report.Subject(alert.SatName)
		body := report.ComposeMessage(alert)
		if err := mailClient.Send(cfg.Recipients, subject, body); err != nil {
			logger.WithError(err).WithField("satellite", alert.SatName).Error("delivering alert mail failed")
		}
	}
}

// statusPublisher holds the last dashboard snapshot for the /status
// handler. The scheduler's non-overlap guarantee (spec.md §5) means
// set is only ever called from one goroutine at a time, but LastReport
// can race with it from an HTTP handler goroutine, so both paths go
// through an atomic-like guard channel instead of a bare field.
type statusPublisher struct {
	ch chan report.StatusMap
}

func newStatusPublisher() *statusPublisher {
	p := &statusPublisher{ch: make(chan report.StatusMap, 1)}
	p.ch <- report.StatusMap{}
	return p
}

func (p *statusPublisher) set(m report.StatusMap) {
	<-p.ch
	p.ch <- m
}

func (p *statusPublisher) LastReport() report.StatusMap {
	m := <-p.ch
	p.ch <- m
	return m
}
