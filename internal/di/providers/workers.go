package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// SessionCleanupJob periodically removes expired sessions from the store.
type SessionCleanupJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown stops the cleanup loop and waits for it to exit.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionCleanup starts the background session cleanup worker.
func ProvideSessionCleanup(i do.Injector) (*SessionCleanupJob, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SessionCleanupJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)

		runCleanup(ctx, sessions, log)

		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCleanup(ctx, sessions, log)
			}
		}
	}()

	log.Info("Session cleanup worker started", "interval", sessionCleanupInterval)
	return job, nil
}

func runCleanup(ctx context.Context, sessions *service.SessionService, log *logger.Logger) {
	removed, err := sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		log.Error("Session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		log.Info("Expired sessions removed", "count", removed)
	}
}
