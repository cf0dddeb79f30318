package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reservasegura/monitor/internal/rules"
)

// jsScenario mirrors the provider's js_scenario parameter.
type jsScenario struct {
	Instructions []map[string]any `json:"instructions"`
}

// waitOnlyScenario lets a client-rendered page settle without interaction.
func waitOnlyScenario() string {
	s := jsScenario{Instructions: []map[string]any{
		{"wait": 8000},
	}}
	out, _ := json.Marshal(s)
	return string(out)
}

// formFillScenario builds wait -> evaluate -> wait instructions where the
// evaluated script locates the locator and surname inputs by hint-matching
// against placeholder/name/id attributes (airline markup is unstable, so
// exact selectors are off the table), fills them, and clicks the first
// matching submit control.
func formFillScenario(r rules.AirlineRules, bookingCode, lastName string) string {
	s := jsScenario{Instructions: []map[string]any{
		{"wait": 3000},
		{"evaluate": fillScript(r, bookingCode, lastName)},
		{"wait": 8000},
	}}
	out, _ := json.Marshal(s)
	return string(out)
}

func fillScript(r rules.AirlineRules, bookingCode, lastName string) string {
	return fmt.Sprintf(`(function() {
  var fill = function(hints, value) {
    var inputs = document.querySelectorAll('input');
    for (var i = 0; i < inputs.length; i++) {
      var inp = inputs[i];
      var attrs = ((inp.placeholder || '') + ' ' + (inp.name || '') + ' ' + (inp.id || '')).toLowerCase();
      for (var j = 0; j < hints.length; j++) {
        if (attrs.indexOf(hints[j]) >= 0) {
          inp.value = value;
          inp.dispatchEvent(new Event('input', {bubbles: true}));
          return;
        }
      }
    }
  };
  fill(%s, %s);
  fill(%s, %s);
  setTimeout(function() {
    var btns = document.querySelectorAll(%s);
    if (btns.length > 0) btns[0].click();
  }, 1000);
})();`,
		jsStringArray(r.LocatorHints), jsString(bookingCode),
		jsStringArray(r.SurnameHints), jsString(lastName),
		jsString(submitSelector(r.SubmitHints)),
	)
}

// submitSelector turns submit hints into a selector list: the type=submit
// control plus class-substring candidates.
func submitSelector(hints []string) string {
	parts := []string{"button[type=submit]"}
	for _, h := range hints {
		if h == "submit" {
			continue
		}
		parts = append(parts, fmt.Sprintf("[class*=%s]", h))
	}
	return strings.Join(parts, ", ")
}

func jsString(v string) string {
	out, _ := json.Marshal(v)
	return string(out)
}

func jsStringArray(vs []string) string {
	out, _ := json.Marshal(vs)
	return string(out)
}
