package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const maturityBatchSize = 100

// Maturer completes investments whose term has ended
type Maturer interface {
	MatureDue(ctx context.Context, batchSize int) (int, error)
}

// MaturityJob periodically settles matured investments
type MaturityJob struct {
	investments Maturer
	interval    time.Duration
	stopChan    chan struct{}
	done        chan struct{}
}

// NewMaturityJob creates a new maturity job
func NewMaturityJob(investments Maturer, interval time.Duration) *MaturityJob {
	return &MaturityJob{
		investments: investments,
		interval:    interval,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start runs the loop until Stop is called
func (j *MaturityJob) Start() {
	defer close(j.done)
	zap.L().Info("Starting investment maturity job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stopChan:
			zap.L().Info("Stopping investment maturity job")
			return
		}
	}
}

// Stop ends the loop and waits for an in-flight run to finish
func (j *MaturityJob) Stop() {
	close(j.stopChan)
	<-j.done
}

// RunOnce settles every batch of due investments
func (j *MaturityJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	total := 0
	for {
		n, err := j.investments.MatureDue(ctx, maturityBatchSize)
		if err != nil {
			zap.L().Error("Investment maturity run failed", zap.Error(err))
			return
		}
		total += n
		// a short batch means nothing more is due, or the rest keep failing
		if n < maturityBatchSize || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		zap.L().Info("Matured investments completed", zap.Int("count", total))
	}
}
