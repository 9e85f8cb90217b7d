// Package daemon runs the documentation build continuously: on a fixed
// schedule, and whenever release note files change on disk. Outcomes are
// stored in the history database, published over NATS and exposed as
// Prometheus metrics.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/docsite"
	"gitlab.com/fpgadoc/fpgadoc/internal/history"
	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
	"gitlab.com/fpgadoc/fpgadoc/internal/metrics"
	"gitlab.com/fpgadoc/fpgadoc/internal/notify"
	"gitlab.com/fpgadoc/fpgadoc/internal/observability"
)

// quietWindow is how long file events must be silent before a rebuild fires.
const quietWindow = 2 * time.Second

// BuildFunc runs one documentation build and returns its report.
type BuildFunc func(ctx context.Context) (*docsite.BuildReport, error)

// Options configures a daemon instance.
type Options struct {
	// OutputDir is where the site is written on every rebuild.
	OutputDir string
	// DataDir holds daemon state such as the history database when no
	// explicit path is configured.
	DataDir string
}

// Daemon owns the rebuild loop and its supporting services.
type Daemon struct {
	cfg       *config.Config
	opts      Options
	recorder  metrics.Recorder
	registry  *prometheus.Registry
	store     *history.Store
	publisher *notify.Publisher
	buildFn   BuildFunc

	// requests carries rebuild triggers. Capacity one: a trigger arriving
	// while a rebuild is pending coalesces into it.
	requests chan string
}

// New assembles a daemon from configuration. The caller must Run it.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	dbPath := cfg.Daemon.HistoryDB
	if dbPath == "" {
		dbPath = filepath.Join(opts.DataDir, "history.db")
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, err
	}

	publisher, err := notify.Connect(cfg.Daemon.NATSURL, cfg.Daemon.NATSSubject)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:       cfg,
		opts:      opts,
		recorder:  recorder,
		registry:  registry,
		store:     store,
		publisher: publisher,
		requests:  make(chan string, 1),
	}
	d.buildFn = d.runSiteBuild
	return d, nil
}

// SetBuildFunc replaces the build implementation. Used by tests.
func (d *Daemon) SetBuildFunc(fn BuildFunc) { d.buildFn = fn }

// Store exposes the history store for status queries.
func (d *Daemon) Store() *history.Store { return d.store }

// Run blocks until ctx is canceled, rebuilding the site on schedule and on
// release note changes. An initial build runs immediately.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.store.Close()
	defer d.publisher.Close()

	server := d.startMetricsServer(ctx)
	if server != nil {
		defer d.stopMetricsServer(server)
	}

	scheduler, err := d.startScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = scheduler.Shutdown() }()

	watcher, err := d.startWatcher(ctx)
	if err != nil {
		return err
	}
	defer watcher.Close()

	d.trigger("startup")

	for {
		select {
		case <-ctx.Done():
			observability.InfoContext(ctx, "Daemon shutting down")
			return nil
		case reason := <-d.requests:
			d.rebuild(ctx, reason)
		}
	}
}

// trigger requests a rebuild, coalescing with any pending one.
func (d *Daemon) trigger(reason string) {
	select {
	case d.requests <- reason:
	default:
	}
}

func (d *Daemon) startScheduler() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(d.cfg.Daemon.RebuildInterval),
		gocron.NewTask(func() { d.trigger("scheduled") }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

// startWatcher watches the release notes directory and debounces bursts of
// file events into a single rebuild trigger.
func (d *Daemon) startWatcher(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(d.cfg.Paths.ReleaseNotesDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch release notes dir: %w", err)
	}

	go func() {
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				observability.DebugContext(ctx, "Release notes changed",
					logfields.File(event.Name))
				if timer == nil {
					timer = time.NewTimer(quietWindow)
					timerC = timer.C
				} else {
					timer.Reset(quietWindow)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				observability.WarnContext(ctx, "File watcher error", logfields.Error(err))
			case <-timerC:
				timer = nil
				timerC = nil
				d.trigger("notes_changed")
			}
		}
	}()
	return watcher, nil
}

func (d *Daemon) startMetricsServer(ctx context.Context) *http.Server {
	listen := d.cfg.Daemon.MetricsListen
	if listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	server := &http.Server{Addr: listen, Handler: mux}
	go func() {
		observability.InfoContext(ctx, "Metrics server listening", logfields.URL(listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.ErrorContext(ctx, "Metrics server failed", logfields.Error(err))
		}
	}()
	return server
}

func (d *Daemon) stopMetricsServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// rebuild runs one build and records its outcome everywhere.
func (d *Daemon) rebuild(ctx context.Context, reason string) {
	observability.InfoContext(ctx, "Rebuilding documentation", logfields.Name(reason))

	report, err := d.buildFn(ctx)
	if err != nil {
		observability.ErrorContext(ctx, "Documentation rebuild failed", logfields.Error(err))
	}
	if report == nil {
		return
	}

	reportJSON, merr := json.Marshal(report)
	if merr != nil {
		reportJSON = nil
	}
	if herr := d.store.AppendBuild(ctx, history.BuildRecord{
		BuildID:         report.BuildID,
		Outcome:         string(report.Outcome),
		DurationMS:      report.Duration.Milliseconds(),
		CoveragePercent: report.CoveragePercent,
		StartedAt:       report.StartedAt,
		Report:          reportJSON,
	}); herr != nil {
		observability.WarnContext(ctx, "Failed to store build record", logfields.Error(herr))
	}

	if perr := d.publisher.PublishBuild(notify.BuildEvent{
		BuildID:         report.BuildID,
		Outcome:         string(report.Outcome),
		DurationMS:      report.Duration.Milliseconds(),
		CoveragePercent: report.CoveragePercent,
	}); perr != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(perr))
	}
}

func (d *Daemon) runSiteBuild(ctx context.Context) (*docsite.BuildReport, error) {
	gen := docsite.NewGenerator(d.cfg, d.opts.OutputDir).SetRecorder(d.recorder)
	return gen.Build(ctx)
}
