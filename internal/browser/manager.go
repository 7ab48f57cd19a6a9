package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/openstax/staxing/internal/config"
)

// Manager owns the shared Chrome allocator and hands out bounded sessions.
type Manager struct {
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	cfg             *config.BrowserConfig
	logger          *zap.SugaredLogger
	sem             *semaphore.Weighted
	activeWg        sync.WaitGroup
}

func NewManager(cfg *config.BrowserConfig, logger *zap.SugaredLogger) (*Manager, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.IgnoreCertErrors,
	)

	if cfg.ExecutablePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecutablePath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	} else {
		opts = append(opts, chromedp.Flag("guest", true))
	}

	allocatorCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Manager{
		allocatorCtx:    allocatorCtx,
		allocatorCancel: cancel,
		cfg:             cfg,
		logger:          logger,
		sem:             semaphore.NewWeighted(int64(cfg.MaxSessions)),
	}, nil
}

// NewSession acquires a browser slot and opens a fresh tab context. The
// caller must Close the session to release the slot.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire browser slot: %w", err)
	}
	m.activeWg.Add(1)

	browserCtx, browserCancel := chromedp.NewContext(
		m.allocatorCtx,
		chromedp.WithLogf(m.logger.Debugf),
	)

	var once sync.Once
	release := func() {
		once.Do(func() {
			browserCancel()
			m.sem.Release(1)
			m.activeWg.Done()
		})
	}

	return &Session{
		ctx:         browserCtx,
		release:     release,
		waitTimeout: m.cfg.WaitTimeout,
		logger:      m.logger,
	}, nil
}

// Shutdown cancels the allocator and waits for active sessions to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager...")

	if m.allocatorCancel != nil {
		m.allocatorCancel()
	}

	done := make(chan struct{})
	go func() {
		m.activeWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All active browser sessions have finished.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown timeout reached while waiting for active browser sessions.")
		return ctx.Err()
	}

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
