package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TickLoop drives Manager.TickAll on a fixed interval with the measured delta
// and flushes dirty sessions every save interval.
type TickLoop struct {
	mgr          *Manager
	interval     time.Duration
	saveInterval time.Duration
	logger       *zap.Logger
}

// NewTickLoop returns a loop that ticks every interval and saves every saveInterval.
//
// Precondition: interval and saveInterval must be > 0.
func NewTickLoop(mgr *Manager, interval, saveInterval time.Duration, logger *zap.Logger) *TickLoop {
	if interval <= 0 || saveInterval <= 0 {
		panic("session.NewTickLoop: intervals must be > 0")
	}
	return &TickLoop{
		mgr:          mgr,
		interval:     interval,
		saveInterval: saveInterval,
		logger:       logger,
	}
}

// Run ticks until ctx is cancelled, then performs a final flush.
//
// Postcondition: every session dirty at cancellation has been offered one
// last write.
func (l *TickLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	lastSave := last
	for {
		select {
		case <-ctx.Done():
			l.flush(context.WithoutCancel(ctx))
			return nil
		case t := <-ticker.C:
			l.mgr.TickAll(t.Sub(last))
			last = t
			if t.Sub(lastSave) >= l.saveInterval {
				l.flush(ctx)
				lastSave = t
			}
		}
	}
}

func (l *TickLoop) flush(ctx context.Context) {
	if err := l.mgr.FlushAll(ctx); err != nil {
		l.logger.Warn("periodic save failed", zap.Error(err))
	}
}
