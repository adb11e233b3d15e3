// Package watcher owns the live pipeline: tailer, bounded work queue,
// worker pool, dedup cache, classifier, and the sequence counter that
// numbers outgoing alerts.
package watcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"grimm.is/firewatch/internal/classify"
	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/dedup"
	"grimm.is/firewatch/internal/hub"
	"grimm.is/firewatch/internal/logging"
	"grimm.is/firewatch/internal/metrics"
	"grimm.is/firewatch/internal/model"
	"grimm.is/firewatch/internal/tail"
)

// Broadcaster fans a message out to every connected client.
type Broadcaster interface {
	Broadcast(v any)
}

// Options configures a Watcher.
type Options struct {
	LogPath      string
	Concurrency  int
	QueueSize    int
	PollInterval time.Duration

	Classifier classify.Classifier
	Hub        Broadcaster
	Clock      clock.Clock
	Logger     *logging.Logger
}

// Watcher coordinates the tail-to-broadcast pipeline. All process-wide
// pipeline state (sequence counter, dedup cache) lives here, not in
// package globals.
type Watcher struct {
	opts    Options
	queue   chan string
	cache   *dedup.Cache
	seq     atomic.Uint64
	log     *logging.Logger
	metrics *metrics.Registry
}

// New builds a watcher. The classifier and hub are required; zero-valued
// sizing options fall back to the documented defaults.
func New(opts Options) (*Watcher, error) {
	if opts.Classifier == nil {
		return nil, fmt.Errorf("watcher: classifier is required")
	}
	if opts.Hub == nil {
		return nil, fmt.Errorf("watcher: hub is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	return &Watcher{
		opts:    opts,
		queue:   make(chan string, opts.QueueSize),
		cache:   dedup.New(dedup.DefaultHighWater, dedup.DefaultEvictBatch),
		log:     opts.Logger.WithComponent("watcher"),
		metrics: metrics.Get(),
	}, nil
}

// Run starts the tailer and the worker pool and blocks until ctx is
// cancelled. A tailer failure stops only the tailer; workers keep
// serving already-queued lines and replay requests.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	tailer := tail.New(w.opts.LogPath, w.opts.PollInterval, w.opts.Logger)
	g.Go(func() error {
		err := tailer.Run(ctx, w.enqueue)
		if err == context.Canceled || err == context.DeadlineExceeded {
			return nil
		}
		return err
	})

	for i := 0; i < w.opts.Concurrency; i++ {
		id := i
		g.Go(func() error {
			w.worker(ctx, id)
			return nil
		})
	}

	w.log.Info("pipeline running",
		"path", w.opts.LogPath,
		"workers", w.opts.Concurrency,
		"queue", w.opts.QueueSize)

	return g.Wait()
}

// enqueue is the tailer's sink. The producer never blocks: a full queue
// drops the line with a warning.
func (w *Watcher) enqueue(line string) {
	w.metrics.LinesTailed.Inc()
	select {
	case w.queue <- line:
		w.metrics.QueueDepth.Set(float64(len(w.queue)))
	default:
		w.metrics.QueueDropped.Inc()
		w.log.Warn("work queue full, line dropped",
			"firewall", model.FirewallIDFromLine(line, "unknown"),
			"line", truncate(line, 100))
	}
}

// worker consumes lines until ctx is cancelled. A failure while handling
// one line never takes the worker down.
func (w *Watcher) worker(ctx context.Context, id int) {
	w.log.Debug("worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-w.queue:
			w.metrics.QueueDepth.Set(float64(len(w.queue)))
			w.safeProcess(id, line)
		}
	}
}

func (w *Watcher) safeProcess(id int, line string) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.WorkerErrors.Inc()
			w.log.Error("worker recovered from panic", "worker", id, "panic", r)
		}
	}()
	w.process(line)
}

// process runs one line through dedup and classification, broadcasting
// an alert request on a positive verdict.
func (w *Watcher) process(line string) {
	w.metrics.LinesProcessed.Inc()

	if w.cache.Seen(line) {
		w.metrics.DedupHits.Inc()
		return
	}

	verdict := w.opts.Classifier.Classify(line)
	if !verdict.Alert {
		return
	}

	req := w.buildAlert(line, verdict)
	w.metrics.Alerts.WithLabelValues(string(verdict.BugType), string(verdict.Severity)).Inc()
	w.log.Info("alert detected",
		"index", req.Index,
		"bug_type", req.BugType,
		"severity", req.Severity,
		"firewall", req.FirewallID)

	w.opts.Hub.Broadcast(hub.Envelope{Type: "new_request", Data: req})
}

// buildAlert derives the broadcastable record from a verdict, assigning
// the next sequence number. Numbers reflect submission order across
// workers; they are strictly increasing and never reused.
func (w *Watcher) buildAlert(line string, v model.Verdict) model.AlertRequest {
	return model.AlertRequest{
		Index:      w.seq.Add(1),
		FirewallID: v.FirewallID,
		Timestamp:  w.opts.Clock.Now().Format(time.RFC3339),
		BugType:    v.BugType,
		Severity:   v.Severity,
		Type:       model.CategoryFor(v.BugType),
		RawLog:     line,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
