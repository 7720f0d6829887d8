package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestExtractFilter(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Filter
	}{
		{
			name: "empty text yields defaults",
			text: "",
			want: Filter{MinMagnitude: 4.5, HoursBack: 24, Limit: 10},
		},
		{
			name: "unmatched text yields defaults",
			text: "what is going on",
			want: Filter{MinMagnitude: 4.5, HoursBack: 24, Limit: 10},
		},
		{
			name: "limit magnitude and hours",
			text: "show 5 earthquakes above magnitude 5 in the last 24 hours",
			want: Filter{MinMagnitude: 5, HoursBack: 24, Limit: 5},
		},
		{
			name: "plus suffix today near place",
			text: "magnitude 6+ today near Indonesia",
			want: Filter{MinMagnitude: 6, HoursBack: 24, Location: "indonesia", Limit: 10},
		},
		{
			name: "days phrase is not a place",
			text: "earthquakes in the last 7 days",
			want: Filter{MinMagnitude: 4.5, HoursBack: 168, Limit: 10},
		},
		{
			name: "place before days phrase",
			text: "earthquakes in Japan in the last 7 days",
			want: Filter{MinMagnitude: 4.5, HoursBack: 168, Location: "japan", Limit: 10},
		},
		{
			name: "greater-or-equal with decimal",
			text: "list 20 quakes >= 5.5 past 48 hours",
			want: Filter{MinMagnitude: 5.5, HoursBack: 48, Limit: 20},
		},
		{
			name: "stray space in greater-or-equal",
			text: "quakes > = 3.2",
			want: Filter{MinMagnitude: 3.2, HoursBack: 24, Limit: 10},
		},
		{
			name: "m shorthand",
			text: "m4+ near alaska",
			want: Filter{MinMagnitude: 4, HoursBack: 24, Location: "alaska", Limit: 10},
		},
		{
			name: "greater than",
			text: "get 3 greater than 6.1",
			want: Filter{MinMagnitude: 6.1, HoursBack: 24, Limit: 3},
		},
		{
			name: "ceiling",
			text: "quakes above 3 below 5 around chile",
			want: Filter{MinMagnitude: 3, MaxMagnitude: ptr(5), HoursBack: 24, Location: "chile", Limit: 10},
		},
		{
			name: "week raises window",
			text: "biggest earthquakes this week",
			want: Filter{MinMagnitude: 4.5, HoursBack: 168, Limit: 10},
		},
		{
			name: "trailing week dropped from place",
			text: "earthquakes near tokyo this week",
			want: Filter{MinMagnitude: 4.5, HoursBack: 168, Location: "tokyo", Limit: 10},
		},
		{
			name: "week ignored when days given",
			text: "past 2 days, not the whole week",
			want: Filter{MinMagnitude: 4.5, HoursBack: 48, Limit: 10},
		},
		{
			name: "today never lowers a longer window",
			text: "last 72 hours up to today",
			want: Filter{MinMagnitude: 4.5, HoursBack: 72, Limit: 10},
		},
		{
			name: "days override hours",
			text: "last 5 hours or the past 3 days",
			want: Filter{MinMagnitude: 4.5, HoursBack: 72, Limit: 10},
		},
		{
			name: "last hour",
			text: "anything in the last hour",
			want: Filter{MinMagnitude: 4.5, HoursBack: 1, Limit: 10},
		},
		{
			name: "place capped at four words",
			text: "earthquakes near the coast of central southern peru",
			want: Filter{MinMagnitude: 4.5, HoursBack: 24, Location: "the coast of central", Limit: 10},
		},
		{
			name: "trailing punctuation trimmed",
			text: "Any quakes in California?",
			want: Filter{MinMagnitude: 4.5, HoursBack: 24, Location: "california", Limit: 10},
		},
		{
			name: "fallback takes the rightmost keyword even when numeric",
			text: "quakes near tokyo with m5 in 2024",
			want: Filter{MinMagnitude: 5, HoursBack: 24, Location: "2024", Limit: 10},
		},
		{
			name: "today stripped from place",
			text: "earthquakes near Tonga today",
			want: Filter{MinMagnitude: 4.5, HoursBack: 24, Location: "tonga", Limit: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFilter(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ExtractFilter(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestExtractFilter_MagnitudeRuleOrder(t *testing.T) {
	// ">=" is tried before "above", so the first rule wins.
	f := ExtractFilter("above 3 and >= 6")
	assert.InEpsilon(t, 6.0, f.MinMagnitude, 0.0001)

	// "magnitude" is tried before a bare "N+".
	f = ExtractFilter("7+ results with magnitude 5")
	assert.InEpsilon(t, 5.0, f.MinMagnitude, 0.0001)
}

func TestExtractFilter_WordBoundaries(t *testing.T) {
	// "km" must not read as the "m N" shorthand.
	f := ExtractFilter("quakes deeper than 10 km 7")
	assert.InEpsilon(t, DefaultMinMagnitude, f.MinMagnitude, 0.0001)

	// "within" does not introduce a place.
	f = ExtractFilter("within reach")
	assert.Empty(t, f.Location)
}

func TestExtractFilter_AlwaysPopulated(t *testing.T) {
	inputs := []string{
		"", "   ", "in", "near", "show", "m", ">=", "last days", "in the last 0 hours",
		"show 999999999999999999999999 quakes", "magnitude 99999999999999999999999999999",
		"¿terremotos en méxico?", "in in in in", " near  around  in ",
		"earthquakes in the past 500000000000000000 days",
		"earthquakes in the past 999999999999999999 days",
		"last 99999999999999999999999 hours",
	}
	for _, in := range inputs {
		f := ExtractFilter(in)
		require.Positive(t, f.MinMagnitude, "input %q", in)
		assert.GreaterOrEqual(t, f.HoursBack, 0, "input %q", in)
		assert.LessOrEqual(t, f.HoursBack, MaxHoursBack, "input %q", in)
		assert.NotZero(t, f.Limit, "input %q", in)
	}
}

func TestExtractFilter_LookbackSaturates(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"earthquakes in the past 500000000000000000 days", MaxHoursBack},
		{"earthquakes in the past 999999999999999999 days", MaxHoursBack},
		{"past 99999999999999999999999 days", MaxHoursBack},
		{"last 99999999999999999999999 hours", MaxHoursBack},
		{"last 18250 days", MaxHoursBack},
		{"last 18249 days", 18249 * 24},
		{"last 438001 hours", MaxHoursBack},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFilter(tt.in).HoursBack)
		})
	}
}

func TestCleanPlace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"japan", "japan"},
		{"  japan.  ", "japan"},
		{"the last 7 days", ""},
		{"the past 12 hours", ""},
		{"japan in the last 7 days", "japan"},
		{"southern alaska this week", "southern alaska"},
		{"the last hour", ""},
		{"today", ""},
		{"a b c d e f", "a b c d"},
		{"...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanPlace(tt.in))
		})
	}
}

func TestKeywordPositions_RightmostFirst(t *testing.T) {
	low := "a in b near c around d"
	got := keywordPositions(low)
	require.Len(t, got, 3)
	assert.Equal(t, "d", low[got[0]:])
	assert.Equal(t, "c around d", low[got[1]:])
	assert.Equal(t, "b near c around d", low[got[2]:])
}
