// Package scraper implements the authenticated scraping path: restore a
// captured session onto a fresh page, list the account's bookings and pick
// out the one being monitored.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/reservasegura/monitor/internal/browser"
	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
)

// AccountScraper reads bookings out of a logged-in airline account.
type AccountScraper struct {
	browser *browser.Manager
}

// NewAccountScraper creates an account scraper over the shared browser.
func NewAccountScraper(b *browser.Manager) *AccountScraper {
	return &AccountScraper{browser: b}
}

// bookingCard is one entry scraped off the trips list.
type bookingCard struct {
	Code      string
	Flight    string
	Route     string
	Time      string
	Passenger string
	Status    string
}

// FetchBooking restores the session onto a fresh page, lists all visible
// booking cards and returns the one whose code contains bookingCode
// (case-insensitive substring; displayed codes may carry formatting).
// The page is closed on every exit path.
func (s *AccountScraper) FetchBooking(ctx context.Context, bundle *model.SessionBundle, bookingCode string) (model.Snapshot, error) {
	r, ok := rules.Lookup(bundle.Airline)
	if !ok {
		return model.Snapshot{}, fmt.Errorf("unsupported airline: %s", bundle.Airline)
	}

	slog.Info("Fetching booking through authenticated session",
		"airline", r.Code,
		"booking_code", bookingCode,
	)

	page, _, err := s.browser.NewPage(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer page.Close()

	if err := restoreSession(page, bundle); err != nil {
		return model.Snapshot{}, err
	}

	if err := page.Navigate(r.TripsURL); err != nil {
		return model.Snapshot{}, &model.TransportError{Op: "navigate " + r.TripsURL, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return model.Snapshot{}, &model.TransportError{Op: "load " + r.TripsURL, Err: err}
	}
	browser.HumanDelay(2*time.Second, 3*time.Second)

	cards, err := extractCards(page, r.Cards)
	if err != nil {
		return model.Snapshot{}, err
	}

	slog.Debug("Extracted booking cards", "airline", r.Code, "count", len(cards))

	needle := strings.ToUpper(bookingCode)
	for _, card := range cards {
		if !strings.Contains(strings.ToUpper(card.Code), needle) {
			continue
		}

		origin, destination := parseRoute(card.Route)
		status := card.Status
		if status == "" {
			status = model.StatusConfirmed
		}
		return model.Snapshot{
			Airline:       r.Code,
			FlightNumber:  card.Flight,
			Origin:        origin,
			Destination:   destination,
			DepartureTime: card.Time,
			PassengerName: card.Passenger,
			Status:        status,
		}, nil
	}

	return model.Snapshot{}, &model.NotFoundError{Airline: r.Code, BookingCode: bookingCode}
}

// restoreSession puts the bundle's cookies, user agent and viewport onto
// the page so the site sees the identity that logged in.
func restoreSession(page *rod.Page, bundle *model.SessionBundle) error {
	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(bundle.Cookies, &cookies); err != nil {
		return fmt.Errorf("failed to decode session cookies: %w", err)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
			Expires:  c.Expires,
		})
	}
	if err := page.SetCookies(params); err != nil {
		return fmt.Errorf("failed to restore cookies: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: bundle.UserAgent,
	}); err != nil {
		return fmt.Errorf("failed to restore user agent: %w", err)
	}

	return browser.ApplyViewport(page, bundle.Viewport)
}

// extractCards pulls every visible booking card off the trips page.
func extractCards(page *rod.Page, sel rules.CardSelectors) ([]bookingCard, error) {
	var elements rod.Elements
	for _, cardSel := range sel.Card {
		els, err := page.Elements(cardSel)
		if err != nil {
			return nil, &model.TransportError{Op: "query booking cards", Err: err}
		}
		if len(els) > 0 {
			elements = els
			break
		}
	}

	cards := make([]bookingCard, 0, len(elements))
	for _, el := range elements {
		cards = append(cards, bookingCard{
			Code:      childText(el, sel.Code),
			Flight:    childText(el, sel.Flight),
			Route:     childText(el, sel.Route),
			Time:      childText(el, sel.Time),
			Passenger: childText(el, sel.Passenger),
			Status:    childText(el, sel.Status),
		})
	}
	return cards, nil
}

// childText returns the first non-empty text among the candidate child
// selectors.
func childText(el *rod.Element, selectors []string) string {
	for _, sel := range selectors {
		child, err := el.Element(sel)
		if err != nil {
			continue
		}
		if text, err := child.Text(); err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// parseRoute splits a displayed route ("GRU → GIG", "GRU - GIG") into
// origin and destination codes. Unparseable routes yield empty fields,
// which the detector treats as not-visible.
func parseRoute(route string) (origin, destination string) {
	for _, sep := range []string{"→", "->", "–", "-", "para"} {
		if parts := strings.SplitN(route, sep, 2); len(parts) == 2 {
			return strings.ToUpper(strings.TrimSpace(parts[0])),
				strings.ToUpper(strings.TrimSpace(parts[1]))
		}
	}
	return "", ""
}
