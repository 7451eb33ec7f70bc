package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/anshfreight/ifta-miles/internal/api/metrics"
	"github.com/anshfreight/ifta-miles/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes report jobs to a fixed set of workers using consistent
// hashing on the report id, so re-submissions of the same report never race
// each other.
type Dispatcher struct {
	workers []chan ports.ReportJob
	runner  ports.ReportRunner
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, runner ports.ReportRunner, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ReportJob, numWorkers),
		runner:  runner,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ReportJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a job to the worker responsible for its report id.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(job ports.ReportJob) {
	idx := d.shardIndex(job.ReportID)
	d.workers[idx] <- job
	metrics.JobQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a report id deterministically to a worker index.
func (d *Dispatcher) shardIndex(reportID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(reportID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ReportJob) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			metrics.JobQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.runner.Run(ctx, job); err != nil {
				d.log.Error().Err(err).
					Str("report_id", job.ReportID).
					Int("worker_id", id).
					Msg("report run failed")
			}
		}
	}
}
