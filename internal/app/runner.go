package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samvad-hq/samvad-catalog-client/internal/config"
	"github.com/samvad-hq/samvad-catalog-client/internal/logger"
	"github.com/samvad-hq/samvad-catalog-client/internal/mainloop"
	"github.com/samvad-hq/samvad-catalog-client/internal/storage"
	"github.com/samvad-hq/samvad-catalog-client/pkg/endpoints"
	"github.com/samvad-hq/samvad-catalog-client/pkg/publishers"
)

const (
	reportBuffer         = 64
	publishTimeout       = 10 * time.Second
	metricsShutdownGrace = 5 * time.Second
)

// Runner keeps one view-model per configured endpoint fresh. Fetch completions are applied on a
// single main loop; a reporter goroutine archives successful collections and publishes an event
// for every applied fetch.
type Runner struct {
	cfg             *config.Config
	log             logger.Logger
	loop            *mainloop.Loop
	bindings        []binding
	store           storage.Store
	fanout          *publishers.Fanout
	refreshInterval time.Duration
	reports         chan report
}

// NewRunner builds a runner from the endpoints file, the optional publishers file and the configured store.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	endpointReg, err := endpoints.LoadRegistry(cfg.EndpointsFile)
	if err != nil {
		return nil, fmt.Errorf("load endpoints registry: %w", err)
	}
	enabled := endpointReg.Enabled()
	ids := make([]string, 0, len(enabled))
	for _, ep := range enabled {
		ids = append(ids, ep.ID)
	}
	log.InfoObj("endpoints registry loaded", "endpoints_meta", map[string]any{
		"count":   len(endpointReg.All()),
		"enabled": ids,
	})

	fanout, err := buildFanout(ctx, cfg, endpointReg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	r, err := newRunner(cfg, log, enabled, store, fanout)
	if err != nil {
		_ = store.Close()
		_ = fanout.Close()
		return nil, err
	}
	return r, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, endpointReg *endpoints.Registry, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; fetch events stay local", "publishers_file", "")
		return publishers.NewFanout(), nil
	}
	set, err := publishers.Load(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if err := set.CheckEndpoints(func(id string) bool {
		_, ok := endpointReg.ByID(id)
		return ok
	}); err != nil {
		return nil, fmt.Errorf("publishers file: %w", err)
	}

	enabled := set.Enabled()
	routes, err := publishers.DefaultBuilders().Routes(ctx, enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":        pubCfg.ID,
			"type":      pubCfg.Type,
			"endpoints": pubCfg.Endpoints,
			"outcomes":  pubCfg.Outcomes,
		})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(routes...), nil
}

func newRunner(cfg *config.Config, log logger.Logger, eps []endpoints.Endpoint, store storage.Store, fanout *publishers.Fanout) (*Runner, error) {
	if store == nil {
		var err error
		if store, err = storage.NewStore("none", "", storage.Options{}); err != nil {
			return nil, err
		}
	}
	loop := mainloop.New()
	services := newServiceCache(cfg)

	bindings := make([]binding, 0, len(eps))
	for _, ep := range eps {
		api, err := services.get(ep.Backend)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.ID, err)
		}
		b, err := newBinding(ep, api, loop, log)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	backends := services.backends()
	sort.Strings(backends)
	log.InfoObj("api services ready", "backends", backends)

	return &Runner{
		cfg:             cfg,
		log:             log,
		loop:            loop,
		bindings:        bindings,
		store:           store,
		fanout:          fanout,
		refreshInterval: cfg.RefreshInterval,
		reports:         make(chan report, reportBuffer),
	}, nil
}

// Run refreshes every endpoint immediately and then on each tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.loop == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.closeSinks()

	if len(r.bindings) == 0 {
		r.log.WarnObj("no endpoints enabled; runner idle", "endpoints_file", r.cfg.EndpointsFile)
		<-ctx.Done()
		return nil
	}

	metricsSrv := r.startMetrics()
	defer r.stopMetrics(metricsSrv)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- r.loop.Run(loopCtx) }()

	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		r.report(ctx)
	}()

	for _, b := range r.bindings {
		b.Watch(r.reports)
	}

	r.log.InfoObj("runner loop starting", "runner_state", map[string]any{
		"endpoints_count":  len(r.bindings),
		"publishers_count": r.fanout.Size(),
		"refresh_interval": r.refreshInterval.String(),
	})

	r.refreshAll(ctx)

	ticker := time.NewTicker(r.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("runner loop exiting", "reason", ctx.Err())
			stopLoop()
			if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
				r.log.ErrorObj("main loop exited with error", "error", err)
			}
			close(r.reports)
			<-reporterDone
			return nil
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Runner) refreshAll(ctx context.Context) {
	ids := make([]string, 0, len(r.bindings))
	for _, b := range r.bindings {
		b.Refresh(ctx)
		ids = append(ids, b.Endpoint().ID)
	}
	r.log.InfoObj("refresh issued", "refresh_meta", map[string]any{
		"endpoints": ids,
		"issued_at": time.Now().UTC(),
	})
}

// report drains fetch reports until the channel is closed.
func (r *Runner) report(ctx context.Context) {
	sinkCtx := context.WithoutCancel(ctx)
	for rep := range r.reports {
		if rep.Err == "" && rep.Items != nil {
			snap := storage.Snapshot{
				EndpointID: rep.EndpointID,
				Kind:       rep.Kind,
				Count:      rep.Count,
				Revision:   rep.Revision,
				Items:      rep.Items,
				FetchedAt:  time.Now().UTC(),
			}
			if err := r.store.SaveSnapshot(snap); err != nil {
				r.log.ErrorObj("snapshot save failed", "snapshot_error", map[string]any{
					"endpoint_id": rep.EndpointID,
					"error":       err.Error(),
				})
			}
		}

		if r.fanout.Size() == 0 {
			continue
		}
		evt := publishers.NewEvent(rep.EndpointID, rep.Kind, rep.Count, rep.Revision, rep.Err)
		pubCtx, cancel := context.WithTimeout(sinkCtx, publishTimeout)
		delivery, err := r.fanout.Publish(pubCtx, evt)
		cancel()
		if err != nil {
			r.log.ErrorObj("fetch event publish failed", "publish_error", map[string]any{
				"endpoint_id": rep.EndpointID,
				"matched":     delivery.Matched,
				"delivered":   delivery.Delivered,
				"error":       err.Error(),
			})
			continue
		}
		r.log.DebugObj("fetch event published", "publish_meta", map[string]any{
			"endpoint_id": rep.EndpointID,
			"outcome":     evt.Outcome(),
			"matched":     delivery.Matched,
			"delivered":   delivery.Delivered,
		})
	}
}

func (r *Runner) startMetrics() *http.Server {
	if r.cfg.MetricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              r.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		r.log.InfoObj("metrics server starting", "metrics_addr", r.cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.log.ErrorObj("metrics server failed", "error", err)
		}
	}()
	return srv
}

func (r *Runner) stopMetrics(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		r.log.ErrorObj("metrics server shutdown failed", "error", err)
	}
}

// closeSinks releases the store and publishers, logging any errors encountered.
func (r *Runner) closeSinks() {
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err)
	}
}
