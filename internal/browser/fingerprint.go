package browser

import (
	"fmt"
	"math/rand"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/reservasegura/monitor/internal/model"
)

// Fingerprint is the identity a page presents to the remote site. Sessions
// capture it so the same identity is restored on later scrapes.
type Fingerprint struct {
	UserAgent string
	Viewport  model.Viewport
}

// Fixed pool of real desktop user agents.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

// Common desktop resolutions; a plausible but non-constant viewport.
var viewports = []model.Viewport{
	{Width: 1920, Height: 1080},
	{Width: 1536, Height: 864},
	{Width: 1366, Height: 768},
	{Width: 1440, Height: 900},
}

const acceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"

func randomFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent: userAgents[rand.Intn(len(userAgents))],
		Viewport:  viewports[rand.Intn(len(viewports))],
	}
}

// applyFingerprint sets the user agent, viewport, locale headers and
// navigator overrides that normally betray automation.
func applyFingerprint(page *rod.Page, fp Fingerprint) error {
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      fp.UserAgent,
		AcceptLanguage: acceptLanguage,
	}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := ApplyViewport(page, fp.Viewport); err != nil {
		return err
	}

	if _, err := page.SetExtraHeaders([]string{
		"Accept-Language", acceptLanguage,
		"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"DNT", "1",
		"Upgrade-Insecure-Requests", "1",
	}); err != nil {
		return fmt.Errorf("failed to set headers: %w", err)
	}

	_, err := page.EvalOnNewDocument(`() => {
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
		Object.defineProperty(navigator, 'languages', { get: () => ['pt-BR', 'pt', 'en-US', 'en'] });
		window.chrome = window.chrome || { runtime: {} };
	}`)
	if err != nil {
		return fmt.Errorf("failed to apply navigator overrides: %w", err)
	}

	return nil
}

// ApplyViewport emulates the given window size on a page.
func ApplyViewport(page *rod.Page, vp model.Viewport) error {
	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             vp.Width,
		Height:            vp.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}
	return nil
}
