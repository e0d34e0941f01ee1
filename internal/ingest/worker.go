package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

type JobPriority int

const (
	PriorityLow JobPriority = iota
	PriorityNormal
	PriorityHigh
)

func (p JobPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}

// Job asks for one file to be ingested into Corpus. Patterns are matched
// against Path relative to Root when Root is set.
type Job struct {
	Corpus   string
	Path     string
	Root     string
	Priority JobPriority
}

type WorkerConfig struct {
	WorkerCount     int
	MaxQueueSize    int
	RateLimit       int
	IncludePatterns []string
	ExcludePatterns []string
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerCount:  2,
		MaxQueueSize: 1000,
		RateLimit:    50,
		IncludePatterns: []string{
			"**/*.txt",
			"**/*.md",
		},
		ExcludePatterns: []string{
			"**/.git/**",
			"**/node_modules/**",
		},
	}
}

type WorkerStats struct {
	Ingested     int64     `json:"ingested"`
	Linked       int64     `json:"linked"`
	Failed       int64     `json:"failed"`
	Skipped      int64     `json:"skipped"`
	InQueue      int64     `json:"in_queue"`
	IsRunning    bool      `json:"is_running"`
	StartedAt    time.Time `json:"started_at"`
	LastIngested time.Time `json:"last_ingested"`
}

// Worker drains ingestion jobs in the background, high priority first.
type Worker struct {
	ingester *Ingester
	config   WorkerConfig

	highQueue   chan Job
	normalQueue chan Job
	lowQueue    chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	stats   WorkerStats
	statsMu sync.RWMutex
}

func NewWorker(ingester *Ingester, config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ingester:    ingester,
		config:      config,
		highQueue:   make(chan Job, 100),
		normalQueue: make(chan Job, config.MaxQueueSize),
		lowQueue:    make(chan Job, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}

	if config.RateLimit > 0 {
		w.rateLimiter = time.NewTicker(time.Second / time.Duration(config.RateLimit))
	}

	return w
}

func (w *Worker) Start() {
	w.statsMu.Lock()
	w.stats.IsRunning = true
	w.stats.StartedAt = time.Now()
	w.statsMu.Unlock()

	log.Info("ingest worker started", "workers", w.config.WorkerCount)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

// Stop cancels in-flight work and waits for every worker goroutine. Jobs
// still queued are dropped.
func (w *Worker) Stop() {
	log.Info("ingest worker stopping")

	w.cancel()
	w.wg.Wait()
	if w.rateLimiter != nil {
		w.rateLimiter.Stop()
	}

	w.statsMu.Lock()
	w.stats.IsRunning = false
	w.statsMu.Unlock()

	log.Info("ingest worker stopped")
}

// Enqueue reports false when the job is filtered out or its queue is full.
func (w *Worker) Enqueue(job Job) bool {
	if !w.accepts(job) {
		atomic.AddInt64(&w.stats.Skipped, 1)
		log.Debug("skipped file", "path", job.Path, "reason", "filtered by pattern")
		return false
	}

	var queue chan Job
	switch job.Priority {
	case PriorityHigh:
		queue = w.highQueue
	case PriorityLow:
		queue = w.lowQueue
	default:
		queue = w.normalQueue
	}

	select {
	case queue <- job:
		atomic.AddInt64(&w.stats.InQueue, 1)
		return true
	default:
		log.Warn("job enqueue failed - queue full", "path", job.Path, "priority", job.Priority)
		return false
	}
}

func (w *Worker) EnqueueBatch(corpus string, paths []string, priority JobPriority) int {
	count := 0
	for _, path := range paths {
		if w.Enqueue(Job{Corpus: corpus, Path: path, Priority: priority}) {
			count++
		}
	}
	return count
}

func (w *Worker) Stats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return WorkerStats{
		Ingested:     atomic.LoadInt64(&w.stats.Ingested),
		Linked:       atomic.LoadInt64(&w.stats.Linked),
		Failed:       atomic.LoadInt64(&w.stats.Failed),
		Skipped:      atomic.LoadInt64(&w.stats.Skipped),
		InQueue:      atomic.LoadInt64(&w.stats.InQueue),
		IsRunning:    w.stats.IsRunning,
		StartedAt:    w.stats.StartedAt,
		LastIngested: w.stats.LastIngested,
	}
}

func (w *Worker) worker(id int) {
	defer w.wg.Done()

	for {
		if w.rateLimiter != nil {
			select {
			case <-w.rateLimiter.C:
			case <-w.ctx.Done():
				return
			}
		}

		job, ok := w.next()
		if !ok {
			return
		}

		atomic.AddInt64(&w.stats.InQueue, -1)
		log.Debug("worker processing job", "worker_id", id, "path", job.Path, "corpus", job.Corpus)
		w.processJob(job)
	}
}

// next blocks for a job, preferring higher priority queues. It returns false
// once the worker is stopped.
func (w *Worker) next() (Job, bool) {
	select {
	case job := <-w.highQueue:
		return job, true
	default:
	}

	select {
	case job := <-w.highQueue:
		return job, true
	case job := <-w.normalQueue:
		return job, true
	default:
	}

	select {
	case job := <-w.highQueue:
		return job, true
	case job := <-w.normalQueue:
		return job, true
	case job := <-w.lowQueue:
		return job, true
	case <-w.ctx.Done():
		return Job{}, false
	}
}

func (w *Worker) processJob(job Job) {
	res, err := w.ingester.IngestFile(w.ctx, job.Corpus, job.Path)
	if err != nil {
		if w.ctx.Err() != nil {
			return
		}
		atomic.AddInt64(&w.stats.Failed, 1)
		log.Warn("failed to ingest", "path", job.Path, "corpus", job.Corpus, "error", err)
		return
	}

	if res.Linked {
		atomic.AddInt64(&w.stats.Linked, 1)
		return
	}

	atomic.AddInt64(&w.stats.Ingested, 1)
	w.statsMu.Lock()
	w.stats.LastIngested = time.Now()
	w.statsMu.Unlock()

	if n := atomic.LoadInt64(&w.stats.Ingested); n%100 == 0 {
		log.Info("ingest progress", "ingested", n, "pending", atomic.LoadInt64(&w.stats.InQueue))
	}
}

func (w *Worker) accepts(job Job) bool {
	return Matches(job.Path, job.Root, w.config.IncludePatterns, w.config.ExcludePatterns)
}

// Matches applies doublestar include and exclude patterns to path, relative
// to root when given. An empty include list accepts everything.
func Matches(path, root string, include, exclude []string) bool {
	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")

	for _, pattern := range exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
