// internal/browser/manager.go
// Package browser owns browser process lifecycle and session creation. A
// session is one tab plus the resolver bound to it; the manager hands out
// sessions for whichever driver the configuration selects.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/internal/config"
)

const (
	playwrightInstallTimeout = 5 * time.Minute
	shutdownGracePeriod      = 15 * time.Second
)

// Manager handles driver startup and session creation for the configured
// backend. Drivers initialize lazily on the first session request.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	sessions map[string]*Session
	mu       sync.RWMutex
	wg       sync.WaitGroup

	// chromedp shared allocator, populated for the "cdp" backend.
	allocCtx    context.Context
	allocCancel context.CancelFunc

	// playwright driver state, populated for the "playwright" backend.
	pw        *playwright.Playwright
	pwBrowser playwright.Browser

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. Driver initialization is deferred
// until the first session is requested.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("browser_manager"),
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		switch m.cfg.Browser.Backend {
		case "playwright":
			m.initErr = m.initPlaywright(ctx)
		default:
			m.initErr = m.initChromedp()
		}
	})
	return m.initErr
}

func (m *Manager) initChromedp() error {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.WindowSize(m.cfg.Browser.ViewportWidth, m.cfg.Browser.ViewportHeight),
	)
	if m.cfg.Browser.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range m.cfg.Browser.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	m.logger.Info("Chromedp allocator ready.", zap.Bool("headless", m.cfg.Browser.Headless))
	return nil
}

func (m *Manager) initPlaywright(ctx context.Context) error {
	m.logger.Info("Verifying Playwright browser installation...")
	installCtx, cancel := context.WithTimeout(ctx, playwrightInstallTimeout)
	defer cancel()

	installErrChan := make(chan error, 1)
	go func() {
		options := &playwright.RunOptions{Browsers: []string{"chromium"}}
		installErrChan <- playwright.Install(options)
	}()
	select {
	case err := <-installErrChan:
		if err != nil {
			return fmt.Errorf("failed to install playwright browsers: %w", err)
		}
	case <-installCtx.Done():
		return fmt.Errorf("timeout waiting for playwright installation: %w", installCtx.Err())
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright driver: %w", err)
	}
	m.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.cfg.Browser.Headless),
		Args:     m.cfg.Browser.Args,
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser instance: %w", err)
	}
	m.pwBrowser = browser
	m.logger.Info("Playwright browser launched.", zap.String("version", browser.Version()))
	return nil
}

// NewSession creates an isolated tab with its own resolver.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	session, err := newSession(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.wg.Add(1)
	session.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, session.ID())
		m.wg.Done()
		m.logger.Debug("Session removed from manager.", zap.String("session_id", session.ID()))
	}

	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()

	m.logger.Info("New session created.",
		zap.String("session_id", session.ID()),
		zap.String("backend", m.cfg.Browser.Backend))
	return session, nil
}

// Shutdown closes all sessions and stops the driver.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.RLock()
	sessionsToClose := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessionsToClose = append(sessionsToClose, s)
	}
	m.mu.RUnlock()

	for _, s := range sessionsToClose {
		go func(s *Session) {
			if err := s.Close(); err != nil {
				m.logger.Warn("Error during session close in shutdown.",
					zap.String("session_id", s.ID()), zap.Error(err))
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("All sessions closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for sessions to close.", zap.Error(ctx.Err()))
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Grace period elapsed waiting for sessions to close.")
	}

	var shutdownErr error
	if m.pwBrowser != nil {
		if err := m.pwBrowser.Close(); err != nil {
			m.logger.Error("Failed to close browser instance.", zap.Error(err))
			shutdownErr = fmt.Errorf("failed to close browser: %w", err)
		}
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			m.logger.Error("Failed to stop Playwright driver.", zap.Error(err))
			if shutdownErr == nil {
				shutdownErr = fmt.Errorf("failed to stop playwright driver: %w", err)
			}
		}
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}

	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
