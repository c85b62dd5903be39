package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sessionCleanupInterval controls how often expired sessions are purged.
	sessionCleanupInterval = 1 * time.Hour
)
