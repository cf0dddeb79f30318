// Package rules holds the per-airline extraction rule table. Adding or
// adjusting an airline is a data-only change; behavior lives in the render
// client, the session manager and the account scraper, all of which consume
// this table through generic hint-matching routines.
package rules

import (
	"strings"

	"github.com/reservasegura/monitor/internal/model"
)

// Version is bumped whenever rule semantics change, so persisted raw
// payloads can be interpreted against the table that produced them.
const Version = 3

// FieldProbe is an ordered list of candidates for one snapshot field.
// CSS selectors are tried first against the rendered document; JSONPath
// expressions run against embedded JSON state blobs (script tags such as
// __NEXT_DATA__) when the markup carries none of the CSS candidates.
type FieldProbe struct {
	CSS  []string
	JSON []string
}

// LoginRules drives the authenticated login flow. Field hints are
// substrings matched case-insensitively against input placeholder/name/id
// attributes, never exact selectors, since airline markup is unstable.
type LoginRules struct {
	URL              string
	EmailHints       []string
	PasswordHints    []string
	SubmitHints      []string
	LoggedInSelector []string
}

// CardSelectors extracts fields out of one booking card on the trips list.
type CardSelectors struct {
	Card      []string
	Code      []string
	Flight    []string
	Route     []string
	Time      []string
	Passenger []string
	Status    []string
}

// AirlineRules is the full rule set for one carrier.
type AirlineRules struct {
	Code         string
	Name         string
	Aliases      []string
	FlightPrefix string

	// Public trip-lookup path (remote-render client).
	LookupURL       string
	DirectQuery     bool // locator/surname go as query params, no form scenario
	LocatorHints    []string
	SurnameHints    []string
	SubmitHints     []string
	NotFoundPhrases []string
	Probes          map[string]FieldProbe

	// Authenticated path (session manager + account scraper).
	Login    LoginRules
	TripsURL string
	Cards    CardSelectors
}

var table = map[string]AirlineRules{
	"GOL": {
		Code:         "GOL",
		Name:         "GOL Linhas Aéreas",
		Aliases:      []string{"G3"},
		FlightPrefix: "G3",
		LookupURL:    "https://b2c.voegol.com.br/compra/minhas-viagens",
		LocatorHints: []string{"localizador", "codigo", "booking", "locator"},
		SurnameHints: []string{"sobrenome", "lastname"},
		SubmitHints:  []string{"submit", "search-button", "btn-search"},
		NotFoundPhrases: []string{
			"nao encontr", "não encontr",
		},
		Probes: map[string]FieldProbe{
			model.FieldFlightNumber: {
				CSS:  []string{"[class*=flight-number]", ".numero-voo", "[class*=voo]"},
				JSON: []string{"$.props.pageProps.booking.flightNumber"},
			},
			model.FieldOrigin: {
				CSS:  []string{"[class*=origin]", ".cidade-origem .iata"},
				JSON: []string{"$.props.pageProps.booking.origin"},
			},
			model.FieldDestination: {
				CSS:  []string{"[class*=destination]", ".cidade-destino .iata"},
				JSON: []string{"$.props.pageProps.booking.destination"},
			},
			model.FieldDepartureTime: {
				CSS: []string{"[class*=departure-time]", ".hora-saida"},
			},
			model.FieldStatus: {
				CSS: []string{"[class*=status]"},
			},
		},
		Login: LoginRules{
			URL:              "https://www.voegol.com.br/pt/login",
			EmailHints:       []string{"email", "e-mail", "usuario"},
			PasswordHints:    []string{"password", "senha"},
			SubmitHints:      []string{"submit", "btn-login", "entrar"},
			LoggedInSelector: []string{".user-name", ".account-menu", `[data-testid="user-menu"]`},
		},
		TripsURL: "https://www.voegol.com.br/pt/servicos/minhas-viagens",
		Cards: CardSelectors{
			Card:      []string{".booking-item", ".trip-card", `[data-testid="booking"]`},
			Code:      []string{".booking-code", ".locator", `[data-testid="locator"]`},
			Flight:    []string{".flight-number", `[data-testid="flight-number"]`},
			Route:     []string{".route", ".origin-destination"},
			Time:      []string{".departure-time", ".time"},
			Passenger: []string{".passenger-name", `[data-testid="passenger"]`},
			Status:    []string{".status", ".booking-status"},
		},
	},
	"LATAM": {
		Code:         "LATAM",
		Name:         "LATAM Airlines",
		Aliases:      []string{"LA", "JJ"},
		FlightPrefix: "LA",
		LookupURL:    "https://www.latamairlines.com/br/pt/minhas-viagens",
		DirectQuery:  true,
		NotFoundPhrases: []string{
			"nao encontr", "não encontr", "no encontr",
		},
		Probes: map[string]FieldProbe{
			model.FieldFlightNumber: {
				CSS:  []string{"[class*=flight-number]", ".numero-vuelo", "[class*=flight]"},
				JSON: []string{"$.props.pageProps.trip.flightNumber"},
			},
			model.FieldOrigin: {
				CSS:  []string{"[class*=origin]", ".aeropuerto-origen"},
				JSON: []string{"$.props.pageProps.trip.origin.iata"},
			},
			model.FieldDestination: {
				CSS:  []string{"[class*=destination]", ".aeropuerto-destino"},
				JSON: []string{"$.props.pageProps.trip.destination.iata"},
			},
			model.FieldDepartureTime: {
				CSS: []string{"[class*=departure-time]", ".hora-salida"},
			},
			model.FieldStatus: {
				CSS: []string{"[class*=status]"},
			},
		},
		Login: LoginRules{
			URL:              "https://www.latam.com/pt_br/apps/personas/login",
			EmailHints:       []string{"email", "e-mail"},
			PasswordHints:    []string{"password", "senha"},
			SubmitHints:      []string{"submit"},
			LoggedInSelector: []string{".user-profile", ".logged-in"},
		},
		TripsURL: "https://www.latam.com/pt_br/apps/personas/mybookings",
		Cards: CardSelectors{
			Card:      []string{".booking", ".my-trip"},
			Code:      []string{".pnr", ".booking-ref"},
			Flight:    []string{".flight-info"},
			Route:     []string{".route-info"},
			Time:      []string{".schedule"},
			Passenger: []string{".passenger"},
			Status:    []string{".trip-status"},
		},
	},
	"AZUL": {
		Code:         "AZUL",
		Name:         "Azul Linhas Aéreas",
		Aliases:      []string{"AD"},
		FlightPrefix: "AD",
		LookupURL:    "https://www.voeazul.com.br/br/pt/home/minhas-viagens",
		LocatorHints: []string{"localizador", "codigo", "pnr", "locator"},
		SurnameHints: []string{"sobrenome", "lastname"},
		SubmitHints:  []string{"submit", "btn-primary", "search-button"},
		NotFoundPhrases: []string{
			"nao encontr", "não encontr",
		},
		Probes: map[string]FieldProbe{
			model.FieldFlightNumber: {
				CSS: []string{"[class*=flight-number]", "[class*=voo]", "[class*=codigo-voo]"},
			},
			model.FieldOrigin: {
				CSS: []string{"[class*=origin] .code", "[class*=origem] .iata", ".departure-city code"},
			},
			model.FieldDestination: {
				CSS: []string{"[class*=destination] .code", "[class*=destino] .iata", ".arrival-city code"},
			},
			model.FieldDepartureTime: {
				CSS: []string{"[class*=departure-time]", ".hora-partida", "[class*=horario-saida]"},
			},
			model.FieldStatus: {
				CSS: []string{"[class*=status]", ".booking-status"},
			},
		},
		Login: LoginRules{
			URL:              "https://www.azul.com.br/login",
			EmailHints:       []string{"username", "email", "e-mail"},
			PasswordHints:    []string{"password", "senha"},
			SubmitHints:      []string{"submit", "login-button"},
			LoggedInSelector: []string{".user-area", ".account-info"},
		},
		TripsURL: "https://www.azul.com.br/minhas-reservas",
		Cards: CardSelectors{
			Card:      []string{".booking-card"},
			Code:      []string{".localizador"},
			Flight:    []string{".voo"},
			Route:     []string{".rota"},
			Time:      []string{".horario"},
			Passenger: []string{".passageiro"},
			Status:    []string{".situacao"},
		},
	},
	"AVIANCA": {
		Code:         "AVIANCA",
		Name:         "Avianca",
		Aliases:      []string{"AV"},
		FlightPrefix: "AV",
		LookupURL:    "https://www.avianca.com/br/pt/minhas-viagens/",
		LocatorHints: []string{"reserva", "codigo", "pnr", "locator"},
		SurnameHints: []string{"sobrenome", "apellido", "lastname"},
		SubmitHints:  []string{"submit", "buscar"},
		NotFoundPhrases: []string{
			"nao encontr", "não encontr", "no encontr",
		},
		Probes: map[string]FieldProbe{
			model.FieldFlightNumber: {
				CSS: []string{"[class*=flight-number]", "[class*=vuelo]"},
			},
			model.FieldOrigin: {
				CSS: []string{"[class*=origin]", ".origen .iata"},
			},
			model.FieldDestination: {
				CSS: []string{"[class*=destination]", ".destino .iata"},
			},
			model.FieldDepartureTime: {
				CSS: []string{"[class*=departure-time]", ".hora-salida"},
			},
			model.FieldStatus: {
				CSS: []string{"[class*=status]"},
			},
		},
		Login: LoginRules{
			URL:              "https://www.avianca.com/br/pt/login/",
			EmailHints:       []string{"email", "e-mail", "usuario"},
			PasswordHints:    []string{"password", "senha", "contrasena"},
			SubmitHints:      []string{"submit", "entrar"},
			LoggedInSelector: []string{".user-profile", ".account-menu"},
		},
		TripsURL: "https://www.avianca.com/br/pt/minhas-viagens/",
		Cards: CardSelectors{
			Card:      []string{".booking-card", ".trip-item"},
			Code:      []string{".booking-code", ".pnr"},
			Flight:    []string{".flight-number"},
			Route:     []string{".route"},
			Time:      []string{".departure-time"},
			Passenger: []string{".passenger-name"},
			Status:    []string{".status"},
		},
	},
}

// aliases maps every alias (and canonical code) to the canonical code.
var aliases = func() map[string]string {
	m := make(map[string]string)
	for code, r := range table {
		m[code] = code
		for _, a := range r.Aliases {
			m[a] = code
		}
	}
	return m
}()

// Lookup resolves an airline code or alias to its rule set.
func Lookup(code string) (AirlineRules, bool) {
	canonical, ok := aliases[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return AirlineRules{}, false
	}
	return table[canonical], true
}

// Supported reports whether the airline has a rule set.
func Supported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Airlines returns the canonical codes of every configured airline.
func Airlines() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	return codes
}

// MatchesHint reports whether any of the attribute values contains one of
// the hints, case-insensitively. It is the single matching routine behind
// every hint list in the table.
func MatchesHint(hints []string, attrs ...string) bool {
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		lower := strings.ToLower(attr)
		for _, h := range hints {
			if strings.Contains(lower, h) {
				return true
			}
		}
	}
	return false
}
