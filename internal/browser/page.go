package browser

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/reservasegura/monitor/internal/rules"
)

// FindInputByHint returns the first input element whose placeholder, name
// or id attribute contains one of the hints, case-insensitively. Airline
// markup churns constantly; exact selectors would rot within weeks.
func FindInputByHint(page *rod.Page, hints []string) (*rod.Element, error) {
	inputs, err := page.Elements("input")
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs: %w", err)
	}

	for _, el := range inputs {
		attrs := make([]string, 0, 3)
		for _, name := range []string{"placeholder", "name", "id"} {
			if v, err := el.Attribute(name); err == nil && v != nil {
				attrs = append(attrs, *v)
			}
		}
		if rules.MatchesHint(hints, attrs...) {
			return el, nil
		}
	}

	return nil, fmt.Errorf("no input matching hints %v", hints)
}

// FindSubmitByHint returns the first button-like element that looks like a
// submit control: type=submit, or a class/text containing one of the hints.
func FindSubmitByHint(page *rod.Page, hints []string) (*rod.Element, error) {
	buttons, err := page.Elements("button, input[type=submit]")
	if err != nil {
		return nil, fmt.Errorf("failed to list buttons: %w", err)
	}

	for _, el := range buttons {
		if v, err := el.Attribute("type"); err == nil && v != nil && strings.EqualFold(*v, "submit") {
			return el, nil
		}
		attrs := make([]string, 0, 2)
		if v, err := el.Attribute("class"); err == nil && v != nil {
			attrs = append(attrs, *v)
		}
		if text, err := el.Text(); err == nil {
			attrs = append(attrs, text)
		}
		if rules.MatchesHint(hints, attrs...) {
			return el, nil
		}
	}

	return nil, fmt.Errorf("no submit control matching hints %v", hints)
}

// TypeLikeHuman clicks the element and types the text with a per-character
// delay in the 50-100ms range.
func TypeLikeHuman(page *rod.Page, el *rod.Element, text string) error {
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to focus input: %w", err)
	}

	for _, r := range text {
		if err := page.InsertText(string(r)); err != nil {
			return fmt.Errorf("failed to type: %w", err)
		}
		time.Sleep(time.Duration(50+rand.Intn(50)) * time.Millisecond)
	}

	return nil
}

// HumanDelay sleeps for a random duration in [min, max].
func HumanDelay(min, max time.Duration) {
	if max <= min {
		time.Sleep(min)
		return
	}
	time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
}
