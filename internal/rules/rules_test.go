package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupCanonical(t *testing.T) {
	for _, code := range []string{"GOL", "LATAM", "AZUL", "AVIANCA"} {
		r, ok := Lookup(code)
		require.True(t, ok, code)
		require.Equal(t, code, r.Code)
		require.NotEmpty(t, r.LookupURL)
		require.NotEmpty(t, r.NotFoundPhrases)
	}
}

func TestLookupAliases(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"G3", "GOL"},
		{"LA", "LATAM"},
		{"JJ", "LATAM"},
		{"AD", "AZUL"},
		{"AV", "AVIANCA"},
		{"gol", "GOL"},
		{"  latam  ", "LATAM"},
	}

	for _, tt := range tests {
		r, ok := Lookup(tt.input)
		require.True(t, ok, tt.input)
		require.Equal(t, tt.want, r.Code)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("RYANAIR")
	require.False(t, ok)
	require.False(t, Supported("RYANAIR"))
	require.True(t, Supported("GOL"))
}

func TestAirlines(t *testing.T) {
	codes := Airlines()
	require.Len(t, codes, 4)
	require.ElementsMatch(t, []string{"GOL", "LATAM", "AZUL", "AVIANCA"}, codes)
}

func TestProbesCoverHeadlineFields(t *testing.T) {
	// Every airline must be able to probe the fields the detector treats
	// as critical.
	for _, code := range Airlines() {
		r, _ := Lookup(code)
		for _, field := range []string{"flightNumber", "origin", "destination"} {
			probe, ok := r.Probes[field]
			require.True(t, ok, "%s missing probe for %s", code, field)
			require.NotEmpty(t, probe.CSS, "%s probe for %s has no CSS candidates", code, field)
		}
	}
}

func TestMatchesHint(t *testing.T) {
	hints := []string{"localizador", "codigo", "locator"}

	require.True(t, MatchesHint(hints, "Digite o Localizador"))
	require.True(t, MatchesHint(hints, "", "booking-LOCATOR-input"))
	require.True(t, MatchesHint(hints, "nome", "codigoReserva"))
	require.False(t, MatchesHint(hints, "sobrenome", "lastname"))
	require.False(t, MatchesHint(hints))
	require.False(t, MatchesHint(hints, ""))
}
