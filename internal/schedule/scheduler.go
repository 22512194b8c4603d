package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Task is a periodic maintenance unit. Runs never overlap: a tick that
// fires while the previous run is still going is dropped.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
	timeout time.Duration
}

// NewRunner builds a five-field cron runner. Each task run is bounded by
// timeout; pass zero to disable the bound.
func NewRunner(timeout time.Duration) *Runner {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Runner{
		cron:    cron.New(cron.WithParser(parser)),
		timeout: timeout,
	}
}

func (r *Runner) Register(spec string, task Task) error {
	if _, err := r.cron.AddFunc(spec, r.guard(task)); err != nil {
		return err
	}
	logutil.GetLogger(context.Background()).Info("task scheduled",
		zap.String("task", task.Name()), zap.String("spec", spec))
	return nil
}

func (r *Runner) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	r.baseCtx = ctx
	r.cron.Start()
}

// Shutdown stops scheduling new runs and waits for in-flight runs to end.
func (r *Runner) Shutdown() {
	<-r.cron.Stop().Done()
}

func (r *Runner) guard(task Task) func() {
	var busy atomic.Bool
	return func() {
		if !busy.CompareAndSwap(false, true) {
			logutil.GetLogger(context.Background()).Warn("task still running, tick dropped",
				zap.String("task", task.Name()))
			return
		}
		defer busy.Store(false)

		ctx := r.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("task", task.Name()))
		start := time.Now()
		if err := task.Run(ctx); err != nil {
			logger.Error("task failed", zap.Error(err), zap.Duration("cost", time.Since(start)))
			return
		}
		logger.Info("task done", zap.Duration("cost", time.Since(start)))
	}
}
