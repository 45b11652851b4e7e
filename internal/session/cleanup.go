package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CleanupService periodically removes expired sessions
type CleanupService struct {
	manager  SessionManager
	interval time.Duration
	logger   zerolog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}

	mutex   sync.Mutex
	running bool
}

// CleanupConfig contains configuration for the cleanup service
type CleanupConfig struct {
	CleanupInterval time.Duration
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(manager SessionManager, config CleanupConfig, logger zerolog.Logger) *CleanupService {
	return &CleanupService{
		manager:  manager,
		interval: config.CleanupInterval,
		logger:   logger.With().Str("component", "cleanup_service").Logger(),
	}
}

// Start begins the cleanup loop in a background goroutine. Starting a
// running service is a no-op.
func (c *CleanupService) Start(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.running {
		return
	}

	c.logger.Debug().
		Dur("interval", c.interval).
		Msg("Starting session cleanup service")

	c.stopCh = make(chan struct{})
	c.stoppedCh = make(chan struct{})
	c.running = true
	go c.run(ctx, c.stopCh, c.stoppedCh)
}

// Stop halts the loop and waits for it to exit. Safe to call repeatedly.
func (c *CleanupService) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.running {
		return
	}

	close(c.stopCh)
	<-c.stoppedCh
	c.running = false

	c.logger.Debug().Msg("Session cleanup service stopped")
}

// IsRunning returns whether the cleanup service is currently running
func (c *CleanupService) IsRunning() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.running
}

// RunOnce performs a single cleanup pass
func (c *CleanupService) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	deleted, err := c.manager.CleanupExpiredSessions(ctx)
	if err != nil {
		c.logger.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Session cleanup failed")
		return deleted, err
	}

	if deleted > 0 {
		c.logger.Info().
			Int("deleted_count", deleted).
			Dur("duration", time.Since(start)).
			Msg("Session cleanup completed")
	}

	return deleted, nil
}

func (c *CleanupService) run(ctx context.Context, stopCh <-chan struct{}, stoppedCh chan<- struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			c.RunOnce(cleanupCtx)
			cancel()
		}
	}
}
