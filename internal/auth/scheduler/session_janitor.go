package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultJanitorInterval = time.Hour

// SessionStore is the part of the user repository the janitor needs
type SessionStore interface {
	DeleteExpiredRefreshTokens(before time.Time) (int64, error)
}

// SessionJanitor periodically purges expired refresh tokens. Sign-in only
// cleans up the signing user's tokens, so abandoned accounts need this sweep.
type SessionJanitor struct {
	store    SessionStore
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// NewSessionJanitor creates a janitor. A non-positive interval means hourly.
func NewSessionJanitor(store SessionStore, interval time.Duration, log *zap.Logger) *SessionJanitor {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}
	return &SessionJanitor{
		store:    store,
		interval: interval,
		log:      log,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop
func (j *SessionJanitor) Start() {
	j.log.Info("session janitor started", zap.Duration("interval", j.interval))

	go func() {
		defer close(j.done)

		// Run immediately on start
		j.sweep()

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				j.sweep()
			case <-j.stopChan:
				j.log.Info("session janitor stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep
func (j *SessionJanitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopChan) })
	<-j.done
}

func (j *SessionJanitor) sweep() {
	n, err := j.store.DeleteExpiredRefreshTokens(j.now())
	if err != nil {
		j.log.Warn("failed to purge expired sessions", zap.Error(err))
		return
	}
	if n > 0 {
		j.log.Info("purged expired sessions", zap.Int64("count", n))
	}
}
