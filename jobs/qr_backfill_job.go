package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"awazgram-server/logger"
)

const defaultBackfillBatch = 50

// QRBackfiller attaches missing QR codes; satisfied by services.ComplaintService.
type QRBackfiller interface {
	BackfillQRCodes(ctx context.Context, limit int) (int, error)
}

// QRBackfillJob periodically retries QR generation for complaints saved without one
type QRBackfillJob struct {
	backfiller QRBackfiller
	interval   time.Duration
	batch      int

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      *slog.Logger
}

// NewQRBackfillJob creates a new backfill job
func NewQRBackfillJob(backfiller QRBackfiller, interval time.Duration) *QRBackfillJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &QRBackfillJob{
		backfiller: backfiller,
		interval:   interval,
		batch:      defaultBackfillBatch,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        logger.WithComponent("qr_backfill_job"),
	}
}

// Start begins the backfill job
func (j *QRBackfillJob) Start() {
	go j.run()
	j.log.Info("qr backfill job started", "interval", j.interval)
}

// Stop stops the job and waits for the current batch to finish
func (j *QRBackfillJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.stopChan)
		<-j.done
		j.log.Info("qr backfill job stopped")
	})
}

func (j *QRBackfillJob) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopChan:
			return
		}
	}
}

// RunOnce processes one batch; the batch is abandoned if Stop is called meanwhile.
func (j *QRBackfillJob) RunOnce() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-j.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	attached, err := j.backfiller.BackfillQRCodes(ctx, j.batch)
	if err != nil {
		j.log.Error("qr backfill failed", "error", err, "attached", attached)
		return attached
	}
	if attached > 0 {
		j.log.Info("qr codes backfilled", "count", attached)
	}
	return attached
}
