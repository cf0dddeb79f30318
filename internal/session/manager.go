// Package session drives authenticated airline logins and owns the
// resulting session bundles. A bundle is a cost optimization, not a source
// of truth: losing one only means the next scrape logs in again.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/reservasegura/monitor/internal/browser"
	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
)

// Manager performs logins through the shared browser and serves session
// lookup and invalidation.
type Manager struct {
	browser *browser.Manager
	store   *Store
	ttl     time.Duration
}

// NewManager creates a session manager. ttl bounds how long a captured
// session is trusted before a fresh login is forced.
func NewManager(b *browser.Manager, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		browser: b,
		store:   NewStore(),
		ttl:     ttl,
	}
}

// Get returns the live session for (airline, email), if any.
func (m *Manager) Get(airline, email string) (*model.SessionBundle, bool) {
	return m.store.Get(airline, email)
}

// Invalidate drops the session for (airline, email).
func (m *Manager) Invalidate(airline, email string) {
	m.store.Invalidate(airline, email)
}

// Login signs into the airline account with human-like pacing and captures
// a reusable session bundle. A failed login (indicator absent) returns
// *model.AuthenticationError; it never panics past this boundary.
func (m *Manager) Login(ctx context.Context, airline, email, password string) (*model.SessionBundle, error) {
	r, ok := rules.Lookup(airline)
	if !ok {
		return nil, fmt.Errorf("unsupported airline: %s", airline)
	}

	slog.Info("Logging into airline account", "airline", r.Code, "email", email)

	page, fp, err := m.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.Navigate(r.Login.URL); err != nil {
		return nil, &model.TransportError{Op: "navigate " + r.Login.URL, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &model.TransportError{Op: "load " + r.Login.URL, Err: err}
	}

	emailInput, err := waitForInput(page, r.Login.EmailHints)
	if err != nil {
		slog.Warn("Login form did not appear", "airline", r.Code, "error", err)
		return nil, &model.AuthenticationError{Airline: r.Code, Email: email}
	}

	browser.HumanDelay(time.Second, 2*time.Second)
	if err := browser.TypeLikeHuman(page, emailInput, email); err != nil {
		return nil, &model.TransportError{Op: "fill email", Err: err}
	}
	browser.HumanDelay(500*time.Millisecond, time.Second)

	passwordInput, err := browser.FindInputByHint(page, r.Login.PasswordHints)
	if err != nil {
		return nil, &model.AuthenticationError{Airline: r.Code, Email: email}
	}
	if err := browser.TypeLikeHuman(page, passwordInput, password); err != nil {
		return nil, &model.TransportError{Op: "fill password", Err: err}
	}
	browser.HumanDelay(500*time.Millisecond, time.Second)

	submit, err := browser.FindSubmitByHint(page, r.Login.SubmitHints)
	if err != nil {
		return nil, &model.AuthenticationError{Airline: r.Code, Email: email}
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, &model.TransportError{Op: "submit login", Err: err}
	}

	// Navigation after submit may be a full reload or an in-page swap;
	// settle on whichever happens within the ceiling.
	_ = page.Timeout(30 * time.Second).WaitLoad()
	browser.HumanDelay(2*time.Second, 3*time.Second)

	if !hasAny(page, r.Login.LoggedInSelector) {
		slog.Warn("Login failed, logged-in indicator not found", "airline", r.Code, "email", email)
		return nil, &model.AuthenticationError{Airline: r.Code, Email: email}
	}

	cookies, err := page.Cookies(nil)
	if err != nil {
		return nil, &model.TransportError{Op: "capture cookies", Err: err}
	}
	blob, err := json.Marshal(cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cookies: %w", err)
	}

	now := time.Now().UTC()
	bundle := &model.SessionBundle{
		Airline:      r.Code,
		AccountEmail: email,
		Cookies:      blob,
		UserAgent:    fp.UserAgent,
		Viewport:     fp.Viewport,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}
	m.store.Put(bundle)

	slog.Info("Session captured",
		"airline", r.Code,
		"email", email,
		"expires_at", bundle.ExpiresAt.Format(time.RFC3339),
	)
	return bundle, nil
}

// waitForInput polls for an input matching the hints; forms on these sites
// render client-side well after the load event, so a single probe is not
// enough.
func waitForInput(page *rod.Page, hints []string) (*rod.Element, error) {
	deadline := time.Now().Add(10 * time.Second)
	for {
		el, err := browser.FindInputByHint(page, hints)
		if err == nil {
			return el, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// hasAny reports whether any of the selectors matches an element.
func hasAny(page *rod.Page, selectors []string) bool {
	for _, sel := range selectors {
		if has, _, err := page.Has(sel); err == nil && has {
			return true
		}
	}
	return false
}
