// Package browser owns the process-wide headless browser used by the
// authenticated scraping path. The browser is launched lazily on first use
// and shared across logins and scrapes; pages are cheap and independent,
// and every caller must close the pages it opens on all exit paths.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config holds browser launch settings.
type Config struct {
	Headless    bool
	BinPath     string
	PageTimeout time.Duration
}

// Manager wraps the shared browser process. Construct once on startup and
// pass by reference; call Close on shutdown.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	browser *rod.Browser
}

// NewManager creates a browser manager. The browser process itself is not
// started until the first page is requested.
func NewManager(cfg Config) *Manager {
	if cfg.PageTimeout == 0 {
		cfg.PageTimeout = 60 * time.Second
	}
	return &Manager{cfg: cfg}
}

// browserLocked lazily launches and connects the shared browser.
func (m *Manager) browserLocked() (*rod.Browser, error) {
	if m.browser != nil {
		return m.browser, nil
	}

	slog.Info("Launching shared browser", "headless", m.cfg.Headless)

	l := launcher.New().
		Headless(m.cfg.Headless).
		Leakless(true).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("lang", "pt-BR,pt;q=0.9").
		Set("window-size", "1920,1080")

	if m.cfg.BinPath != "" {
		l = l.Bin(m.cfg.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	m.browser = b
	slog.Info("Shared browser ready")
	return b, nil
}

// NewPage opens a fresh stealth page with a randomized fingerprint applied.
// The returned fingerprint records what was applied so sessions can pin it.
func (m *Manager) NewPage(ctx context.Context) (*rod.Page, Fingerprint, error) {
	m.mu.Lock()
	b, err := m.browserLocked()
	m.mu.Unlock()
	if err != nil {
		return nil, Fingerprint{}, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, Fingerprint{}, fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Context(ctx).Timeout(m.cfg.PageTimeout)

	fp := randomFingerprint()
	if err := applyFingerprint(page, fp); err != nil {
		_ = page.Close()
		return nil, Fingerprint{}, err
	}

	return page, fp, nil
}

// Close shuts down the shared browser process.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return nil
	}

	slog.Info("Closing shared browser")
	err := m.browser.Close()
	m.browser = nil
	return err
}
