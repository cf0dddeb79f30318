package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/oliveagle/jsonpath"

	"github.com/reservasegura/monitor/internal/model"
	"github.com/reservasegura/monitor/internal/rules"
)

// rawSampleLimit bounds the page sample retained on extraction failures.
const rawSampleLimit = 3000

// Extract parses fully-rendered trip-page HTML into a snapshot using the
// airline's rule table. Explicit "not found" phrases are checked before any
// field probing so that a vanished reservation is not mistaken for a broken
// rule set.
func Extract(r rules.AirlineRules, html, bookingCode, lastName string) (model.Snapshot, error) {
	lower := strings.ToLower(html)
	for _, phrase := range r.NotFoundPhrases {
		if strings.Contains(lower, phrase) {
			return model.Snapshot{}, &model.NotFoundError{Airline: r.Code, BookingCode: bookingCode}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.Snapshot{}, &model.ExtractionError{Airline: r.Code, RawSample: truncate(html, rawSampleLimit)}
	}

	blobs := embeddedJSON(doc)

	probe := func(field string) string {
		p, ok := r.Probes[field]
		if !ok {
			return ""
		}
		for _, sel := range p.CSS {
			if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
				return text
			}
		}
		for _, expr := range p.JSON {
			for _, blob := range blobs {
				if v, err := jsonpath.JsonPathLookup(blob, expr); err == nil {
					if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
						return strings.TrimSpace(s)
					}
				}
			}
		}
		return ""
	}

	snapshot := model.Snapshot{
		Airline:       r.Code,
		FlightNumber:  probe(model.FieldFlightNumber),
		Origin:        probe(model.FieldOrigin),
		Destination:   probe(model.FieldDestination),
		DepartureTime: probe(model.FieldDepartureTime),
		Status:        probe(model.FieldStatus),
		PassengerName: lastName,
	}

	if snapshot.Empty() {
		return model.Snapshot{}, &model.ExtractionError{Airline: r.Code, RawSample: truncate(html, rawSampleLimit)}
	}

	if snapshot.Status == "" {
		snapshot.Status = model.StatusConfirmed
	}
	if snapshot.FlightNumber == "" {
		snapshot.FlightNumber = placeholderFlightNumber(r.FlightPrefix, bookingCode)
	}

	return snapshot, nil
}

// embeddedJSON collects parseable JSON state blobs shipped in script tags
// (framework hydration payloads), so JSONPath probes have something to run
// against when the visible markup carries no recognizable classes.
func embeddedJSON(doc *goquery.Document) []any {
	var blobs []any
	doc.Find(`script#__NEXT_DATA__, script[type="application/json"]`).Each(func(_ int, s *goquery.Selection) {
		var blob any
		if err := json.Unmarshal([]byte(s.Text()), &blob); err == nil {
			blobs = append(blobs, blob)
		}
	})
	return blobs
}

// placeholderFlightNumber synthesizes a last-resort flight number from the
// airline prefix plus digits of the booking code. It never overwrites a
// real extracted value.
func placeholderFlightNumber(prefix, bookingCode string) string {
	var digits strings.Builder
	for _, c := range bookingCode {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
			if digits.Len() == 4 {
				break
			}
		}
	}
	if digits.Len() == 0 {
		return fmt.Sprintf("%s%.4s", prefix, bookingCode)
	}
	return prefix + digits.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
