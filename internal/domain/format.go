package domain

import (
	"fmt"
	"strings"
)

// timeLayout renders event times as "2024-04-26 15:10:00".
const timeLayout = "2006-01-02 15:04:05"

// RenderReport renders events and the filter that produced them as plain text.
// The output depends only on its arguments.
func RenderReport(events []Event, f Filter) string {
	scope := scopeSuffix(f)

	if len(events) == 0 {
		return "No earthquakes found" + scope + "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d earthquake(s)%s:\n", len(events), scope)
	for i, ev := range events {
		b.WriteString("\n")
		if i > 0 {
			b.WriteString("\n")
		}
		writeEvent(&b, i+1, ev)
	}
	return b.String()
}

// scopeSuffix describes the filter, e.g. " in japan in the last 24 hours (M5.0+)".
func scopeSuffix(f Filter) string {
	var b strings.Builder
	if f.Location != "" {
		b.WriteString(" in ")
		b.WriteString(f.Location)
	}
	unit := "hours"
	if f.HoursBack == 1 {
		unit = "hour"
	}
	fmt.Fprintf(&b, " in the last %d %s (M%.1f+)", f.HoursBack, unit, f.MinMagnitude)
	return b.String()
}

func writeEvent(b *strings.Builder, n int, ev Event) {
	fmt.Fprintf(b, "%d. M%.1f — %s\n", n, ev.Magnitude, ev.Place)
	fmt.Fprintf(b, "   %s UTC\n", ev.Time.UTC().Format(timeLayout))
	fmt.Fprintf(b, "   Lat: %.2f, Lon: %.2f | Depth: %.1f km", ev.Latitude, ev.Longitude, ev.Depth)
	if ev.Tsunami {
		b.WriteString(" ⚠ TSUNAMI WARNING")
	}
	if ev.AlertLevel != "" {
		fmt.Fprintf(b, " [%s]", strings.ToUpper(ev.AlertLevel))
	}
	if ev.URL != "" {
		fmt.Fprintf(b, "\n   %s", ev.URL)
	}
}
