// Package domain turns batches of raw seismic-event rows into per-region
// statistics, risk tiers and map-ready encodings.
//
// # Data Source
//
// Rows come from USGS-style earthquake CSV exports, parsed upstream with
// dynamic typing: numeric cells arrive as numbers, "true"/"false" as bools,
// empty cells as absent, everything else as strings. Columns used by default:
//
//	id, time, latitude, longitude, depth, mag, location, country, type,
//	status, tsunami, sig, net
//
// The district dashboard reads a "district" column instead of "country".
//
// # Validation
//
// A row is usable when its region is a non-empty string after trimming and
// latitude, longitude and magnitude are finite numbers (numeric strings are
// accepted). Bad rows are normal in real feeds and are dropped silently.
// Negative magnitudes are real micro-quakes; they are kept unless a positive
// [Config.MinMagnitude] floor excludes them.
//
// Time values:
//
//	Epoch milliseconds, as a number or integer string: 1578377119759
//	RFC 3339: 2020-01-07T06:05:19Z
//	Bare date: 2020-01-07
//
// Instants before 1970 are valid in all three forms, so negative epoch
// milliseconds and pre-1970 strings are handled alike. The Unix epoch itself
// (0, "0", 1970-01-01T00:00:00Z) is the feeds' missing-time sentinel and is
// treated as absent in every form. Region date ranges are printed as
// YYYY-MM-DD in UTC.
//
// # Aggregation
//
// Centroids are unweighted means of member coordinates, not geodesic
// centers. Average magnitudes are rounded to one decimal, halves away from
// zero. Extrema are exact unless [Config.RoundExtrema] is set.
//
// # Risk Tiers
//
// Two models, both inclusive lower bounds evaluated top-down:
//
//	frequency (event count): ≥20 very_high | ≥15 high | ≥10 moderate | ≥7 medium | else low
//	magnitude (region max):  ≥6.3 severe | ≥6.1 elevated | else normal
//
// Each tier maps to exactly one #rrggbb color. Marker size is
// clamp(min, max, count*scale), 18/40/4 by default.
//
// # Predictions
//
// Prediction annotations are static configuration. They are rendered with a
// fixed label style and never interact with the observed statistics.
package domain
