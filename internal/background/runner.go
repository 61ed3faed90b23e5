// Package background runs recurring maintenance jobs, such as keeping the
// course catalog cache warm, off the request path.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

// Job is a named task executed on a fixed interval. Run receives a context
// bounded by Timeout when one is set.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

var (
	jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sencours",
		Subsystem: "background",
		Name:      "job_runs_total",
		Help:      "Background job executions by job and status.",
	}, []string{"job", "status"})

	jobDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sencours",
		Subsystem: "background",
		Name:      "job_duration_seconds",
		Help:      "Background job execution latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
)

type Runner struct {
	mu      sync.Mutex
	jobs    []Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewRunner() *Runner {
	return &Runner{}
}

// Add registers a job. Must be called before Start.
func (r *Runner) Add(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return
	}
	r.jobs = append(r.jobs, job)
}

func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	status := "success"

	defer func() {
		if rec := recover(); rec != nil {
			status = "failure"
			logger.Error(fmt.Errorf("panic: %v", rec), "Background job panicked", map[string]interface{}{
				"job": job.Name,
			})
		}
		jobDurationSeconds.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		jobRunsTotal.WithLabelValues(job.Name, status).Inc()
	}()

	if err := job.Run(ctx); err != nil {
		status = "failure"
		logger.Error(err, "Background job failed", map[string]interface{}{"job": job.Name})
		return
	}
	logger.Debug("Background job completed", map[string]interface{}{"job": job.Name})
}

// Shutdown stops the loops and waits for in-flight runs, bounded by ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
