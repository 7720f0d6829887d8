// Package domain models earthquake queries and the USGS events that answer them.
//
// # Data Source
//
// Events come from the USGS FDSN Event Web Service
// (https://earthquake.usgs.gov/fdsnws/event/1/), queried in GeoJSON format.
// Each feature carries:
//
//	properties.mag      magnitude (may be null for very recent events)
//	properties.place    free-text description, e.g. "45 km SSE of Miyako, Japan"
//	properties.time     epoch milliseconds, UTC
//	properties.url      event detail page
//	properties.alert    PAGER alert level: green, yellow, orange, red (often null)
//	properties.tsunami  1 when a tsunami bulletin was issued, otherwise 0
//	geometry.coordinates [longitude, latitude, depth_km]
//
// # Queries
//
// Free text is reduced to a Filter by ExtractFilter using ordered pattern
// tables, never a grammar. Every Filter field has a default, so any input,
// including the empty string, yields a usable query:
//
//	min magnitude 4.5, no max, last 24 hours, no location, 10 results
//
// The location is not sent to USGS. It is matched as a case-insensitive
// substring against each event's place text after the response arrives.
//
// # Reports
//
// RenderReport produces the plain-text answer. Output depends only on its
// arguments so the same events and filter always render the same bytes.
package domain
