// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/descry/internal/browser/cdp"
	"github.com/xkilldash9x/descry/internal/browser/pw"
	"github.com/xkilldash9x/descry/internal/resolve"
)

// Session is one isolated tab: a driver handle, the query backend wrapping
// it, and the resolver bound to that backend. Sessions are not safe for
// concurrent use; run concurrent resolutions in separate sessions.
type Session struct {
	id       string
	logger   *zap.Logger
	backend  resolve.Backend
	resolver *resolve.Resolver

	// chromedp state.
	tabCtx    context.Context
	tabCancel context.CancelFunc

	// playwright state.
	pwContext playwright.BrowserContext
	pwPage    playwright.Page

	navTimeout  time.Duration
	onClose     func()
	closeOnce   sync.Once
	closeErr    error
	currentURL  string
	backendName string
}

func newSession(ctx context.Context, m *Manager) (*Session, error) {
	id := uuid.NewString()
	s := &Session{
		id:          id,
		logger:      m.logger.Named("session").With(zap.String("session_id", id)),
		backendName: m.cfg.Browser.Backend,
	}

	switch m.cfg.Browser.Backend {
	case "playwright":
		browserCtx, err := m.pwBrowser.NewContext(playwright.BrowserNewContextOptions{
			Viewport: &playwright.Size{
				Width:  m.cfg.Browser.ViewportWidth,
				Height: m.cfg.Browser.ViewportHeight,
			},
			IgnoreHttpsErrors: playwright.Bool(m.cfg.Browser.IgnoreTLSErrors),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create browser context: %w", err)
		}
		page, err := browserCtx.NewPage()
		if err != nil {
			browserCtx.Close()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		page.SetDefaultTimeout(float64(m.cfg.Browser.NavigationTimeout.Milliseconds()))
		s.pwContext = browserCtx
		s.pwPage = page
		s.backend = pw.NewBackend(page, m.logger)

	default:
		tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)
		// An empty run forces tab creation so failures surface here rather
		// than on the first query.
		if err := chromedp.Run(tabCtx,
			chromedp.EmulateViewport(
				int64(m.cfg.Browser.ViewportWidth),
				int64(m.cfg.Browser.ViewportHeight),
			),
		); err != nil {
			tabCancel()
			return nil, fmt.Errorf("failed to start browser tab: %w", err)
		}
		s.tabCtx = tabCtx
		s.tabCancel = tabCancel
		s.backend = cdp.NewBackend(tabCtx, m.logger, cdp.Options{
			NetworkIdleQuiet: m.cfg.Resolver.NetworkIdleQuiet,
		})
	}

	s.navTimeout = m.cfg.Browser.NavigationTimeout
	s.resolver = resolve.New(s.backend, m.cfg.Resolver, m.logger)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Resolver returns the element resolver bound to this session's tab.
func (s *Session) Resolver() *resolve.Resolver { return s.resolver }

// Backend exposes the raw query backend for callers that need primitives
// below the resolver.
func (s *Session) Backend() resolve.Backend { return s.backend }

// CurrentURL returns the last URL Navigate was pointed at.
func (s *Session) CurrentURL() string { return s.currentURL }

// Navigate loads the URL and then waits, best effort, for the page to settle
// so resolution starts against a stable document.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	switch s.backendName {
	case "playwright":
		if _, err := s.pwPage.Goto(url, playwright.PageGotoOptions{
			Timeout: playwright.Float(float64(s.navTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("navigation to %s failed: %w", url, err)
		}
	default:
		navCtx, cancel := navContext(s.tabCtx, ctx, s.navTimeout)
		defer cancel()
		if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("navigation to %s failed: %w", url, err)
		}
	}

	s.currentURL = url
	return s.resolver.WaitForDynamicContent(ctx)
}

// navContext bounds one chromedp navigation: derived from the tab context so
// the action routes to the right target, capped by the configured navigation
// timeout, and canceled early when the caller's context ends first.
func navContext(tabCtx, callerCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	navCtx, cancel := context.WithTimeout(tabCtx, timeout)
	stop := context.AfterFunc(callerCtx, cancel)
	return navCtx, func() {
		stop()
		cancel()
	}
}

// Close releases the tab. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		switch s.backendName {
		case "playwright":
			if s.pwPage != nil {
				if err := s.pwPage.Close(); err != nil {
					s.closeErr = err
				}
			}
			if s.pwContext != nil {
				if err := s.pwContext.Close(); err != nil && s.closeErr == nil {
					s.closeErr = err
				}
			}
		default:
			if s.tabCancel != nil {
				s.tabCancel()
			}
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.logger.Debug("Session closed.")
	})
	return s.closeErr
}
